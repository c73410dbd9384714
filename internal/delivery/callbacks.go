// Package delivery implements the driver-side frame callback.
//
// OnFrame runs on a thread owned by the capture driver. It must never block:
// it validates, copies and hands off, nothing else.
package delivery

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/frame"
)

// Pusher is the non-blocking side of the frame queue.
type Pusher interface {
	TryPush(f *frame.Frame) bool
}

// Context holds the state OnFrame needs, shared with the stats reader.
// Accepted and dropped frames are counted by the queue itself.
type Context struct {
	Queue  Pusher
	Width  int
	Height int

	Discarded atomic.Uint64 // payload length mismatch
	BytesRead atomic.Uint64

	// LastFrameAt holds the UnixNano of the last accepted frame.
	LastFrameAt atomic.Int64
}

// NewContext returns a context for frames of the negotiated dimensions.
func NewContext(q Pusher, width, height int) *Context {
	return &Context{Queue: q, Width: width, Height: height}
}

// OnFrame is called by the driver once per captured frame
//
// This callback:
//  1. Rejects payloads whose length is not 2 × width × height
//  2. Decodes little-endian samples into a frame-owned slice (the driver reuses its buffer)
//  3. Offers the frame to the queue (non-blocking - drops if full)
//
// Rejections and drops are counted, never logged: the consumer reports totals.
func OnFrame(payload []byte, ctx *Context) {
	expected := frame.ByteLen(ctx.Width, ctx.Height)
	if len(payload) != expected {
		ctx.Discarded.Add(1)
		return
	}

	pixels := make([]uint16, ctx.Width*ctx.Height)
	for i := range pixels {
		pixels[i] = binary.LittleEndian.Uint16(payload[2*i:])
	}

	now := time.Now()
	f := &frame.Frame{
		Width:      ctx.Width,
		Height:     ctx.Height,
		Pixels:     pixels,
		CapturedAt: now,
	}

	ctx.BytesRead.Add(uint64(len(payload)))

	if ctx.Queue.TryPush(f) {
		ctx.LastFrameAt.Store(now.UnixNano())
	}
}
