// Package uvc drives a USB Video Class camera through the Linux uvcvideo
// driver: discovery by USB id, V4L2 mode enumeration, extension-unit
// control transfers and a GStreamer capture pipeline.
package uvc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
	"golang.org/x/sys/unix"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// Config selects the camera to open.
type Config struct {
	VendorID  uint16
	ProductID uint16
	SysfsRoot string // default "/sys"

	// StartTimeout bounds the wait for the pipeline to reach PLAYING (default 5s).
	StartTimeout time.Duration
}

// Device is an open capture node. Streaming and control transfers share
// the node; the pipeline opens it a second time by path.
type Device struct {
	fd   int
	info Info
	cfg  Config

	mode       Mode
	negotiated bool

	controlMu sync.Mutex

	elements  *PipelineElements
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	streaming atomic.Bool
	closed    atomic.Bool

	errors ErrorCounters
}

// Open finds the first video capture node of vid:pid and opens it.
//
// Returns an error wrapping ErrDeviceNotFound when no node matches, or
// ErrDeviceOpenFailed when matching nodes exist but none can be opened.
func Open(cfg Config) (*Device, error) {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 5 * time.Second
	}

	candidates, err := FindCandidates(cfg.SysfsRoot, cfg.VendorID, cfg.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no video4linux node for %04x:%04x",
			ErrDeviceNotFound, cfg.VendorID, cfg.ProductID)
	}

	var lastErr error
	for _, c := range candidates {
		fd, err := unix.Open(c.DevPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			lastErr = fmt.Errorf("open %s: %w", c.DevPath, err)
			continue
		}

		info, err := queryCapability(fd, c.DevPath)
		if err != nil {
			unix.Close(fd)
			lastErr = fmt.Errorf("%s: %w", c.DevPath, err)
			continue
		}
		// uvcvideo also registers a metadata node per camera
		if info.DeviceCaps&capVideoCapture == 0 {
			unix.Close(fd)
			continue
		}

		slog.Debug("uvc: device opened",
			"path", info.Path,
			"interface_index", c.Index,
			"driver", info.Driver,
			"card", info.Card,
			"bus", info.BusInfo,
			"version", info.Version,
		)
		return &Device{fd: fd, info: info, cfg: cfg}, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: %04x:%04x has no video capture node",
			ErrDeviceNotFound, cfg.VendorID, cfg.ProductID)
	}
	return nil, fmt.Errorf("%w: %v", ErrDeviceOpenFailed, lastErr)
}

// Info returns the capabilities reported by the driver.
func (d *Device) Info() Info { return d.info }

// Errors returns the pipeline error counters.
func (d *Device) Errors() *ErrorCounters { return &d.errors }

// Modes enumerates every format and frame size the camera offers.
func (d *Device) Modes() ([]Mode, error) {
	return enumerateModes(d.fd)
}

// NegotiateFormat selects the first mode with the given pixel format.
func (d *Device) NegotiateFormat(format FourCC) (Mode, error) {
	modes, err := d.Modes()
	if err != nil {
		return Mode{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	for _, m := range modes {
		slog.Debug("uvc: mode", "format", m.PixelFormat.String(), "description", m.Description,
			"width", m.Width, "height", m.Height, "fps", m.FPS())
	}

	mode, ok := selectMode(modes, format)
	if !ok {
		return Mode{}, fmt.Errorf("%w: %s not offered by %s (%d modes)",
			ErrUnsupportedFormat, format, d.info.Card, len(modes))
	}

	d.mode = mode
	d.negotiated = true
	return mode, nil
}

// StartStreaming builds the capture pipeline and begins delivering frames
// to deliver on GStreamer's streaming thread.
func (d *Device) StartStreaming(deliver DeliverFunc) error {
	if !d.negotiated {
		return fmt.Errorf("%w: format not negotiated", ErrStreamStartFailed)
	}
	if !d.streaming.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: already streaming", ErrStreamStartFailed)
	}

	elements, err := CreatePipeline(PipelineConfig{
		DevicePath:  d.info.Path,
		Width:       d.mode.Width,
		Height:      d.mode.Height,
		IntervalNum: d.mode.IntervalNum,
		IntervalDen: d.mode.IntervalDen,
	})
	if err != nil {
		d.streaming.Store(false)
		return fmt.Errorf("%w: %v", ErrStreamStartFailed, err)
	}

	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return OnNewSample(sink, deliver)
		},
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		DestroyPipeline(elements)
		d.streaming.Store(false)
		return fmt.Errorf("%w: failed to start pipeline: %v", ErrStreamStartFailed, err)
	}

	if err := waitForPlaying(elements.Pipeline, d.cfg.StartTimeout); err != nil {
		DestroyPipeline(elements)
		d.streaming.Store(false)
		return fmt.Errorf("%w: %v", ErrStreamStartFailed, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.elements = elements
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := MonitorPipelineBus(ctx, elements.Pipeline, &d.errors, d.info.Path); err != nil {
			slog.Error("uvc: pipeline monitor stopped", "error", err)
		}
	}()

	slog.Info("uvc: streaming started",
		"device", d.info.Path,
		"mode", d.mode.String(),
	)
	return nil
}

// StopStreaming stops frame delivery. Idempotent.
func (d *Device) StopStreaming() error {
	if !d.streaming.CompareAndSwap(true, false) {
		return nil
	}

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		slog.Warn("uvc: stop timeout exceeded, pipeline monitor may still be running")
	}

	err := DestroyPipeline(d.elements)
	d.elements = nil
	d.cancel = nil

	slog.Info("uvc: streaming stopped", "device", d.info.Path)
	return err
}

// Control performs one extension-unit transfer and returns a libuvc-style
// result code. It implements xu.Transport.
func (d *Device) Control(req xu.Request, unit, selector uint8, buf []byte) int {
	d.controlMu.Lock()
	defer d.controlMu.Unlock()

	if d.closed.Load() {
		return xu.ResultNoDevice
	}
	return resultCode(controlQuery(d.fd, req, unit, selector, buf))
}

// Close stops streaming and releases the node. Idempotent.
func (d *Device) Close() error {
	streamErr := d.StopStreaming()

	d.controlMu.Lock()
	defer d.controlMu.Unlock()

	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := unix.Close(d.fd); err != nil {
		return fmt.Errorf("uvc: close %s: %w", d.info.Path, err)
	}
	slog.Debug("uvc: device closed", "path", d.info.Path)
	return streamErr
}
