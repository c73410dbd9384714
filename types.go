package thermalcapture

import (
	"fmt"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/fpsstats"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/frame"
)

// Frame is one decoded Y16 image. Pixels are owned by the frame.
type Frame = frame.Frame

// State is the lifecycle phase of a capture session
type State int32

const (
	// StateStarting opens the device and negotiates the stream
	StateStarting State = iota
	// StateStreaming pops and persists frames
	StateStreaming
	// StateStopping releases the device
	StateStopping
	// StateStopped is terminal
	StateStopped
)

// String returns a human-readable string representation of the state
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// StreamConfig is the negotiated capture mode
type StreamConfig struct {
	Width  int
	Height int
	// Frame interval as a fraction of a second
	IntervalNum uint32
	IntervalDen uint32
}

// FPS returns the nominal frame rate.
func (c StreamConfig) FPS() float64 {
	if c.IntervalNum == 0 {
		return 0
	}
	return float64(c.IntervalDen) / float64(c.IntervalNum)
}

// TemperatureSample is the sensor reading attached to persisted frames
type TemperatureSample struct {
	// Celsius is the FPA temperature rounded to 0.01 °C
	Celsius float64
	// Seq is the sequence number at which the reading was taken
	Seq uint64
	// TakenAt is when the reading completed
	TakenAt time.Time
}

// BusErrors counts pipeline errors by category
type BusErrors struct {
	Device      uint64
	Negotiation uint64
	Resource    uint64
	Unknown     uint64
}

// Total returns the sum over all categories.
func (b BusErrors) Total() uint64 {
	return b.Device + b.Negotiation + b.Resource + b.Unknown
}

// Stats contains current session statistics
type Stats struct {
	// SessionID identifies the run in logs
	SessionID string
	// State is the current lifecycle phase
	State State
	// Stream is the negotiated mode (zero before streaming)
	Stream StreamConfig

	// FramesDelivered is the number of frames accepted into the queue
	FramesDelivered uint64
	// FramesDiscarded is the number of payloads with an unexpected length
	FramesDiscarded uint64
	// FramesDropped is the number of frames dropped (queue full)
	FramesDropped uint64
	// FramesPersisted is the number of files written
	FramesPersisted uint64
	// BytesRead is the total payload bytes accepted
	BytesRead uint64

	// Calibrations is the number of successful FFC runs
	Calibrations uint64
	// CalibrationFailures is the number of FFC runs rejected by the camera
	CalibrationFailures uint64

	// Temperature is the reading currently used for file names
	Temperature TemperatureSample
	// TemperatureFailures is the number of refreshes that kept a stale value
	TemperatureFailures uint64

	// BusErrors is only filled for devices that report them
	BusErrors BusErrors

	// Uptime is the time since streaming started
	Uptime time.Duration
	// FPS summarizes the cadence of persisted frames
	FPS fpsstats.Summary
}
