// Package thermalcapture records raw frames from a FLIR Lepton on a
// PureThermal USB board (1e4e:0100).
//
// It negotiates the 16-bit single-channel (Y16) mode, persists every frame
// the driver delivers as a text matrix tagged with the sensor temperature,
// and honors flat-field correction (FFC) and shutdown requests between
// frames, never in the middle of one.
//
// # Quick Start
//
//	flags := control.NewFlags()
//	stop := control.Notify(flags) // SIGUSR1 = FFC, SIGINT/SIGTERM/SIGUSR2 = stop
//	defer stop()
//
//	capture, err := thermalcapture.New(
//	    thermalcapture.Config{OutputDir: "/data/ir"},
//	    open, // thermalcapture.Opener
//	    flags,
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(thermalcapture.ExitCode(capture.Run(context.Background())))
//
// The package itself does not link GStreamer. The uvcvideo Opener used by
// cmd/ir-stream lives in internal/cli; tests drive New with an in-memory
// Device.
//
// # Session Lifecycle
//
//	Starting → Streaming → Stopping → Stopped
//
// Starting opens the camera, selects the first Y16 mode, creates the output
// directory, starts the pipeline and reads the initial FPA temperature. Any
// failure there ends the session with a wrapped ErrDeviceNotFound,
// ErrDeviceOpenFailed, ErrUnsupportedFormat or ErrStreamStartFailed.
//
// Streaming pops one frame at a time. Every TemperatureEvery frames
// (default 100) the FPA temperature is re-read; a failed read keeps the
// previous value. A pending FFC request runs before the frame is written.
// No frame within PopTimeout (default 5s) ends the session with
// ErrStreamStall unless shutdown was requested meanwhile.
//
// # Frame Delivery
//
// Frames arrive on GStreamer's streaming thread and are handed to a bounded
// queue (capacity 2). When the writer falls behind, the newest frame is
// dropped and counted; the driver thread never blocks. Payloads whose length
// is not 2 × width × height are discarded and counted.
//
// # Output Format
//
//	<dir>/<seq %06d>_<celsius>.rawir
//
// e.g. /data/ir/000007_21.5.rawir. One line per scan line, samples as
// decimal integers separated by single spaces. Sequence numbers start at 0
// and are contiguous within a session.
//
// # Exit Codes
//
// ExitCode maps Run's result: 0 for a clean shutdown (signal or context
// cancellation), 1 for anything else, including a stall.
package thermalcapture
