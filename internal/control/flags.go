// Package control holds the shutdown and calibration requests raised by
// asynchronous sources (OS signals, the calibration schedule) and polled by
// the capture loop.
package control

import "sync/atomic"

// Flags is the process control state. Setters are plain atomic stores so
// they are safe from any context; only the consumer clears.
type Flags struct {
	shutdown    atomic.Bool
	calibration atomic.Bool
}

// NewFlags returns cleared flags.
func NewFlags() *Flags {
	return &Flags{}
}

// RequestShutdown marks the session for an orderly stop.
func (f *Flags) RequestShutdown() {
	f.shutdown.Store(true)
}

// RequestCalibration asks for a flat-field correction before the next write.
func (f *Flags) RequestCalibration() {
	f.calibration.Store(true)
}

// ConsumeShutdownRequested reports whether shutdown was requested.
// Shutdown is terminal, so the flag stays set.
func (f *Flags) ConsumeShutdownRequested() bool {
	return f.shutdown.Load()
}

// ConsumeCalibrationRequested reports and clears a pending calibration request.
func (f *Flags) ConsumeCalibrationRequested() bool {
	return f.calibration.CompareAndSwap(true, false)
}

// CalibrationPending reports a pending calibration request without clearing it.
func (f *Flags) CalibrationPending() bool {
	return f.calibration.Load()
}
