package thermalcapture

import (
	"errors"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/uvc/uvcerr"
)

// Startup failures, returned wrapped by Run.
var (
	ErrDeviceNotFound    = uvcerr.ErrDeviceNotFound
	ErrDeviceOpenFailed  = uvcerr.ErrDeviceOpenFailed
	ErrUnsupportedFormat = uvcerr.ErrUnsupportedFormat
	ErrStreamStartFailed = uvcerr.ErrStreamStartFailed
)

var (
	// ErrStreamStall is returned when no frame arrives within the pop timeout.
	ErrStreamStall = errors.New("thermal-capture: stream stalled")

	// ErrPersistFailed is returned when a frame file cannot be written.
	ErrPersistFailed = errors.New("thermal-capture: persist failed")
)

// ExitCode maps the result of Run to a process exit status: 0 for a clean
// shutdown, 1 for any failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
