package uvc

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/uvc/uvcerr"
)

// Session failures. All of them are fatal at startup.
var (
	ErrDeviceNotFound    = uvcerr.ErrDeviceNotFound
	ErrDeviceOpenFailed  = uvcerr.ErrDeviceOpenFailed
	ErrUnsupportedFormat = uvcerr.ErrUnsupportedFormat
	ErrStreamStartFailed = uvcerr.ErrStreamStartFailed
)

// ErrorCategory represents the classification of pipeline errors for telemetry
type ErrorCategory int

const (
	// ErrCategoryDevice indicates the capture node went away or stopped answering
	ErrCategoryDevice ErrorCategory = iota
	// ErrCategoryNegotiation indicates caps/format negotiation failures
	ErrCategoryNegotiation
	// ErrCategoryResource indicates buffer or memory exhaustion
	ErrCategoryResource
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryNegotiation:
		return "negotiation"
	case ErrCategoryResource:
		return "resource"
	default:
		return "unknown"
	}
}

var (
	negotiationKeywords = []string{
		"not negotiated",
		"not-negotiated",
		"negotiation",
		"caps",
		"format",
		"invalid argument",
	}
	deviceKeywords = []string{
		"no such device",
		"could not read from resource",
		"could not open",
		"device is busy",
		"resource busy",
		"disconnected",
		"input/output error",
		"v4l2",
	}
	resourceKeywords = []string{
		"cannot allocate",
		"out of memory",
		"no buffers",
		"buffer pool",
		"failed to allocate",
	}
)

// ClassifyGStreamerError categorizes a bus error.
// go-gst's GError exposes no domain, so classification is by message text.
func ClassifyGStreamerError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return ClassifyMessage(gerr.Error(), gerr.DebugString())
}

// ClassifyMessage categorizes an error by its message and debug text.
// Negotiation is checked first because v4l2src reports caps failures with
// device-looking debug strings.
func ClassifyMessage(msg, debug string) ErrorCategory {
	combined := strings.ToLower(msg + " " + debug)

	switch {
	case containsAny(combined, negotiationKeywords):
		return ErrCategoryNegotiation
	case containsAny(combined, resourceKeywords):
		return ErrCategoryResource
	case containsAny(combined, deviceKeywords):
		return ErrCategoryDevice
	default:
		return ErrCategoryUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
