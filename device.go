package thermalcapture

import "github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"

// Device is an open camera session.
//
// StartStreaming's deliver runs on a driver-owned thread and must not block.
// Control carries vendor commands and may be used while streaming.
type Device interface {
	xu.Transport

	// NegotiateFormat selects the first Y16 mode.
	NegotiateFormat() (StreamConfig, error)
	StartStreaming(deliver func(payload []byte)) error
	// StopStreaming is idempotent.
	StopStreaming() error
	// Close releases the device. Idempotent.
	Close() error
}

// BusErrorReporter is implemented by devices that count pipeline errors.
type BusErrorReporter interface {
	BusErrors() BusErrors
}

// Opener opens the camera with the given USB ids. The uvcvideo
// implementation lives in internal/cli so this package builds without cgo.
type Opener func(vendorID, productID uint16) (Device, error)
