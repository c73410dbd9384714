package uvc

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// PipelineConfig contains configuration for GStreamer pipeline creation
type PipelineConfig struct {
	DevicePath  string
	Width       int
	Height      int
	IntervalNum uint32
	IntervalDen uint32
}

// PipelineElements holds references to GStreamer pipeline elements needed
// for callbacks and cleanup
type PipelineElements struct {
	Pipeline   *gst.Pipeline
	AppSink    *app.Sink
	Source     *gst.Element
	CapsFilter *gst.Element
}

// Caps returns the raw caps string for cfg. Y16 maps to GRAY16_LE.
func (cfg PipelineConfig) Caps() string {
	caps := fmt.Sprintf("video/x-raw,format=GRAY16_LE,width=%d,height=%d", cfg.Width, cfg.Height)
	if cfg.IntervalNum > 0 && cfg.IntervalDen > 0 {
		caps += fmt.Sprintf(",framerate=%d/%d", cfg.IntervalDen, cfg.IntervalNum)
	}
	return caps
}

// CreatePipeline creates and configures a GStreamer pipeline for Y16 capture
//
// Pipeline structure:
//
//	v4l2src → capsfilter → appsink
//
// No conversion elements: the appsink receives the driver's raw payload so
// its length can be validated against the negotiated mode.
//
// The pipeline is configured but NOT started (state remains NULL).
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", cfg.DevicePath)
	src.SetProperty("do-timestamp", true)

	capsFilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsFilter.SetProperty("caps", gst.NewCapsFromString(cfg.Caps()))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	// Newest frame wins inside GStreamer too; the frame queue enforces the real bound.
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, capsFilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to add elements to pipeline: %w", err)
	}
	if err := gst.ElementLinkMany(src, capsFilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link elements: %w", err)
	}

	slog.Debug("uvc: pipeline created",
		"device", cfg.DevicePath,
		"caps", cfg.Caps(),
	)

	return &PipelineElements{
		Pipeline:   pipeline,
		AppSink:    appsink,
		Source:     src,
		CapsFilter: capsFilter,
	}, nil
}

// DestroyPipeline stops the pipeline and releases its resources.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	slog.Debug("uvc: pipeline destroyed")
	return nil
}
