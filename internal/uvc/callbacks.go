package uvc

import (
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// DeliverFunc receives the raw payload of one captured frame. The slice is
// only valid for the duration of the call.
type DeliverFunc func(payload []byte)

// OnNewSample is called by GStreamer on its streaming thread for every frame
//
// This callback:
//  1. Pulls the sample from the appsink
//  2. Maps the buffer read-only
//  3. Hands the mapped bytes to deliver (which copies what it keeps)
//  4. Unmaps the buffer
//
// Always returns gst.FlowOK: a bad sample is skipped, never fatal.
func OnNewSample(sink *app.Sink, deliver DeliverFunc) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("uvc: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("uvc: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	deliver(mapInfo.Bytes())
	buffer.Unmap()

	return gst.FlowOK
}
