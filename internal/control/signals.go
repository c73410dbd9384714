package control

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ShutdownSignals request an orderly stop. SIGUSR2 is what the host service
// sends to end a capture session.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGUSR2}

// CalibrationSignal requests a flat-field correction.
var CalibrationSignal os.Signal = syscall.SIGUSR1

// Notify routes process signals onto flags until the returned stop func is
// called. The forwarding goroutine only sets flags.
func Notify(flags *Flags) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, append(ShutdownSignals, CalibrationSignal)...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				Dispatch(flags, sig)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Dispatch maps one signal to its flag. Unknown signals are ignored.
func Dispatch(flags *Flags, sig os.Signal) {
	if sig == CalibrationSignal {
		flags.RequestCalibration()
		return
	}
	for _, s := range ShutdownSignals {
		if sig == s {
			flags.RequestShutdown()
			return
		}
	}
}
