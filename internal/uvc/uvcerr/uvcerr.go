// Package uvcerr holds the session failures of package uvc. It imports no
// cgo so callers can match them without linking GStreamer.
package uvcerr

import "errors"

// Session failures. All of them are fatal at startup.
var (
	ErrDeviceNotFound    = errors.New("uvc: device not found")
	ErrDeviceOpenFailed  = errors.New("uvc: device open failed")
	ErrUnsupportedFormat = errors.New("uvc: unsupported format")
	ErrStreamStartFailed = errors.New("uvc: stream start failed")
)
