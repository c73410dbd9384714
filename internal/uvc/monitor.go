package uvc

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCounters holds atomic counters for bus errors by category
type ErrorCounters struct {
	Device      atomic.Uint64
	Negotiation atomic.Uint64
	Resource    atomic.Uint64
	Unknown     atomic.Uint64
}

// Add counts one error of category c.
func (e *ErrorCounters) Add(c ErrorCategory) {
	switch c {
	case ErrCategoryDevice:
		e.Device.Add(1)
	case ErrCategoryNegotiation:
		e.Negotiation.Add(1)
	case ErrCategoryResource:
		e.Resource.Add(1)
	default:
		e.Unknown.Add(1)
	}
}

// waitForPlaying polls the bus until the pipeline reports PLAYING, an error
// arrives or timeout elapses.
func waitForPlaying(pipeline *gst.Pipeline, timeout time.Duration) error {
	bus := pipeline.GetPipelineBus()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			return fmt.Errorf("pipeline error [%s]: %s",
				ClassifyGStreamerError(gerr).String(), gerr.Error())

		case gst.MessageStateChanged:
			if msg.Source() != pipeline.GetName() {
				continue
			}
			if _, newState := msg.ParseStateChanged(); newState == gst.StatePlaying {
				slog.Debug("uvc: pipeline reached PLAYING state")
				return nil
			}
		}
	}

	return fmt.Errorf("pipeline did not reach PLAYING within %s", timeout)
}

// MonitorPipelineBus watches the bus of a running pipeline until ctx is
// cancelled or the stream ends
//
// Errors are classified and counted, then monitoring stops: frame delivery
// has ended and the consumer will observe the silence as a stall.
func MonitorPipelineBus(ctx context.Context, pipeline *gst.Pipeline, counters *ErrorCounters, devicePath string) error {
	if pipeline == nil {
		return fmt.Errorf("pipeline not initialized")
	}

	bus := pipeline.GetPipelineBus()
	startedAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("uvc: context cancelled, stopping pipeline monitor")
			return nil

		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Warn("uvc: end of stream received",
					"device", devicePath,
					"uptime", time.Since(startedAt),
				)
				return fmt.Errorf("end of stream")

			case gst.MessageError:
				gerr := msg.ParseError()
				category := ClassifyGStreamerError(gerr)
				counters.Add(category)

				slog.Error("uvc: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"device", devicePath,
					"uptime", time.Since(startedAt),
				)
				return fmt.Errorf("pipeline error [%s]: %s", category.String(), gerr.Error())

			case gst.MessageWarning:
				gerr := msg.ParseWarning()
				slog.Warn("uvc: pipeline warning",
					"warning", gerr.Error(),
					"debug", gerr.DebugString(),
				)

			case gst.MessageStateChanged:
				if msg.Source() == pipeline.GetName() {
					old, new := msg.ParseStateChanged()
					slog.Debug("uvc: pipeline state changed",
						"from", old,
						"to", new,
					)
				}
			}
		}
	}
}
