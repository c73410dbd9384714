// Package frame defines the captured thermal frame shared by the delivery
// path, the queue and the persistence loop.
package frame

import "time"

// Frame is a width×height grid of raw 16-bit samples in row-major order.
//
// A Frame is owned by exactly one stage at a time: the producer until it is
// queued, the queue while buffered, the consumer after Pop.
type Frame struct {
	Width      int
	Height     int
	Pixels     []uint16
	CapturedAt time.Time
}

// ByteLen returns the payload size a driver must report for a frame of
// these dimensions.
func ByteLen(width, height int) int {
	return 2 * width * height
}

// Row returns the samples of scan line y.
func (f *Frame) Row(y int) []uint16 {
	return f.Pixels[y*f.Width : (y+1)*f.Width]
}
