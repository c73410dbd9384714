package thermalcapture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/control"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/delivery"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/fpsstats"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/queue"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/storage"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/telemetry"
	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/xu"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultVendorID         uint16 = 0x1e4e
	DefaultProductID        uint16 = 0x0100
	DefaultQueueCapacity           = 2
	DefaultPopTimeout              = 5 * time.Second
	DefaultTemperatureEvery        = 100
)

// Config configures a capture session
type Config struct {
	// USB ids of the camera (PureThermal: 1e4e:0100)
	VendorID  uint16
	ProductID uint16

	// OutputDir receives the .rawir files; created if missing
	OutputDir string

	// QueueCapacity bounds frames buffered between driver and writer
	QueueCapacity int
	// PopTimeout is how long the writer waits for a frame before the
	// stream is considered stalled
	PopTimeout time.Duration
	// TemperatureEvery is the number of persisted frames between FPA
	// temperature reads
	TemperatureEvery int
}

// Option customizes a Capture.
type Option func(*Capture)

// WithLogger sets the base logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Capture) { c.logger = l }
}

// WithMetrics records session metrics on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Capture) { c.metrics = m }
}

// Capture runs one capture session: open, stream, persist, stop.
type Capture struct {
	cfg       Config
	open      Opener
	flags     *control.Flags
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	sessionID string

	state atomic.Int32
	ran   atomic.Bool

	// Session resources (guarded by mu, set during Starting)
	mu        sync.RWMutex
	stream    StreamConfig
	temp      TemperatureSample
	started   time.Time
	stoppedAt time.Time
	dctx      *delivery.Context
	queue     *queue.Bounded[*Frame]
	device    Device

	persisted           atomic.Uint64
	calibrations        atomic.Uint64
	calibrationFailures atomic.Uint64
	temperatureFailures atomic.Uint64

	fps *fpsstats.Window
}

// New creates a capture session with fail-fast validation
//
// Validates configuration at construction time:
//   - OutputDir must not be empty
//   - opener and flags must not be nil
//   - QueueCapacity, PopTimeout and TemperatureEvery must not be negative
//
// Zero values take the package defaults.
func New(cfg Config, open Opener, flags *control.Flags, opts ...Option) (*Capture, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("thermal-capture: output directory is required")
	}
	if open == nil {
		return nil, fmt.Errorf("thermal-capture: opener is required")
	}
	if flags == nil {
		return nil, fmt.Errorf("thermal-capture: control flags are required")
	}
	if cfg.QueueCapacity < 0 || cfg.PopTimeout < 0 || cfg.TemperatureEvery < 0 {
		return nil, fmt.Errorf("thermal-capture: invalid config (queue=%d, pop_timeout=%v, temperature_every=%d)",
			cfg.QueueCapacity, cfg.PopTimeout, cfg.TemperatureEvery)
	}

	if cfg.VendorID == 0 {
		cfg.VendorID = DefaultVendorID
	}
	if cfg.ProductID == 0 {
		cfg.ProductID = DefaultProductID
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.PopTimeout == 0 {
		cfg.PopTimeout = DefaultPopTimeout
	}
	if cfg.TemperatureEvery == 0 {
		cfg.TemperatureEvery = DefaultTemperatureEvery
	}

	c := &Capture{
		cfg:       cfg,
		open:      open,
		flags:     flags,
		logger:    slog.Default(),
		sessionID: uuid.NewString(),
		fps:       fpsstats.NewWindow(fpsstats.DefaultWindow),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session_id", c.sessionID)

	return c, nil
}

// SessionID returns the id attached to every log line of this session.
func (c *Capture) SessionID() string { return c.sessionID }

// State returns the current lifecycle phase. Safe from any goroutine.
func (c *Capture) State() State { return State(c.state.Load()) }

func (c *Capture) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.logger.Debug("thermal-capture: state changed", "from", old.String(), "to", s.String())
	}
}

// Run executes the session until shutdown is requested, ctx is cancelled
// or a fatal error occurs.
//
// Lifecycle:
//  1. Starting: open, negotiate Y16, prepare OutputDir, start streaming,
//     read the initial temperature. Any failure is returned wrapped.
//  2. Streaming: pop, refresh temperature every TemperatureEvery frames,
//     run a pending calibration, write. A pop timeout without a shutdown
//     request returns ErrStreamStall; a write error returns ErrPersistFailed.
//  3. Stopping: stop delivery, close the device, log the session summary.
//
// Returns nil on clean shutdown. A Capture runs once.
func (c *Capture) Run(ctx context.Context) error {
	if !c.ran.CompareAndSwap(false, true) {
		return fmt.Errorf("thermal-capture: session already run")
	}

	// ctx cancellation is an ordinary shutdown request
	stopWatch := context.AfterFunc(ctx, c.flags.RequestShutdown)
	defer stopWatch()

	err := c.session(ctx)

	c.mu.Lock()
	c.stoppedAt = time.Now()
	c.mu.Unlock()

	c.logSummary(err)
	c.setState(StateStopped)
	return err
}

func (c *Capture) session(ctx context.Context) error {
	c.setState(StateStarting)
	c.logger.Info("thermal-capture: starting session",
		"vendor_id", fmt.Sprintf("%04x", c.cfg.VendorID),
		"product_id", fmt.Sprintf("%04x", c.cfg.ProductID),
		"output_dir", c.cfg.OutputDir,
	)

	dev, err := c.open(c.cfg.VendorID, c.cfg.ProductID)
	if err != nil {
		return fmt.Errorf("thermal-capture: open %04x:%04x: %w", c.cfg.VendorID, c.cfg.ProductID, err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			c.logger.Warn("thermal-capture: failed to close device", "error", err)
		}
	}()

	stream, err := dev.NegotiateFormat()
	if err != nil {
		return fmt.Errorf("thermal-capture: negotiate format: %w", err)
	}
	c.logger.Info("thermal-capture: format negotiated",
		"resolution", fmt.Sprintf("%dx%d", stream.Width, stream.Height),
		"fps", stream.FPS(),
	)

	writer, err := storage.NewWriter(c.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("thermal-capture: output directory: %w", err)
	}

	q := queue.New[*Frame](c.cfg.QueueCapacity)
	dctx := delivery.NewContext(q, stream.Width, stream.Height)

	c.mu.Lock()
	c.stream = stream
	c.queue = q
	c.dctx = dctx
	c.device = dev
	c.mu.Unlock()

	unobserve, err := c.metrics.Observe(c.snapshot)
	if err != nil {
		c.logger.Warn("thermal-capture: metrics unavailable", "error", err)
	} else {
		defer unobserve()
	}

	if err := dev.StartStreaming(func(payload []byte) { delivery.OnFrame(payload, dctx) }); err != nil {
		return fmt.Errorf("thermal-capture: start streaming: %w", err)
	}
	defer func() {
		if err := dev.StopStreaming(); err != nil {
			c.logger.Warn("thermal-capture: failed to stop streaming", "error", err)
		}
	}()

	gw := xu.NewGateway(dev)
	if err := c.refreshTemperature(ctx, gw, 0); err != nil {
		return fmt.Errorf("thermal-capture: initial temperature: %w", err)
	}

	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()

	c.setState(StateStreaming)
	err = c.streamLoop(ctx, q, writer, gw)
	c.setState(StateStopping)
	return err
}

// streamLoop is the Streaming state. It returns nil on shutdown.
func (c *Capture) streamLoop(ctx context.Context, q *queue.Bounded[*Frame], w *storage.Writer, gw *xu.Gateway) error {
	var seq uint64
	every := uint64(c.cfg.TemperatureEvery)

	for {
		if c.flags.ConsumeShutdownRequested() {
			c.logger.Info("thermal-capture: shutdown requested", "frames_persisted", seq)
			return nil
		}

		f, err := q.Pop(c.cfg.PopTimeout)
		if err != nil {
			if c.flags.ConsumeShutdownRequested() {
				c.logger.Info("thermal-capture: shutdown requested", "frames_persisted", seq)
				return nil
			}
			c.metrics.Stall(ctx)
			c.logger.Error("thermal-capture: stream stalled, no frame received",
				"timeout", c.cfg.PopTimeout,
				"frames_persisted", seq,
				"frames_dropped", c.dropped(),
			)
			return fmt.Errorf("%w: no frame within %v after %d frames", ErrStreamStall, c.cfg.PopTimeout, seq)
		}

		if seq%every == 0 {
			if err := c.refreshTemperature(ctx, gw, seq); err != nil {
				c.temperatureFailures.Add(1)
				c.logger.Warn("thermal-capture: temperature refresh failed, keeping last value",
					"seq", seq,
					"celsius", c.temperature().Celsius,
					"error", err,
				)
			}
		}

		if c.flags.ConsumeCalibrationRequested() {
			c.calibrate(ctx, gw, seq)
		}

		temp := c.temperature()
		path, err := w.Write(f, seq, temp.Celsius)
		if err != nil {
			return fmt.Errorf("%w: frame %d: %w", ErrPersistFailed, seq, err)
		}

		c.persisted.Add(1)
		c.fps.Add(f.CapturedAt)
		c.metrics.FramePersisted(ctx)
		c.logger.Debug("thermal-capture: frame persisted", "seq", seq, "path", path)
		seq++
	}
}

func (c *Capture) refreshTemperature(ctx context.Context, gw *xu.Gateway, seq uint64) error {
	k, err := gw.FPATemperature()
	if err != nil {
		return err
	}
	sample := TemperatureSample{Celsius: k.Celsius(), Seq: seq, TakenAt: time.Now()}

	c.mu.Lock()
	c.temp = sample
	c.mu.Unlock()

	c.metrics.Temperature(ctx, sample.Celsius)
	c.logger.Debug("thermal-capture: temperature sampled", "seq", seq, "fpa", k.String(), "celsius", sample.Celsius)
	return nil
}

// calibrate runs a flat-field correction between two writes. Failures are
// logged and the session continues.
func (c *Capture) calibrate(ctx context.Context, gw *xu.Gateway, seq uint64) {
	start := time.Now()
	err := gw.RunFFC()
	c.metrics.Calibration(ctx, err == nil)

	if err != nil {
		c.calibrationFailures.Add(1)
		var cmdErr *xu.CommandError
		code := 0
		if errors.As(err, &cmdErr) {
			code = cmdErr.Code
		}
		c.logger.Warn("thermal-capture: FFC failed",
			"seq", seq,
			"code", code,
			"result", xu.ResultName(code),
			"error", err,
		)
		return
	}

	c.calibrations.Add(1)
	c.logger.Info("thermal-capture: FFC complete", "seq", seq, "duration", time.Since(start))
}

func (c *Capture) temperature() TemperatureSample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.temp
}

func (c *Capture) dropped() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.queue == nil {
		return 0
	}
	return c.queue.Dropped()
}

func (c *Capture) snapshot() telemetry.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dctx == nil {
		return telemetry.Snapshot{}
	}
	return telemetry.Snapshot{
		Delivered: c.queue.Pushed(),
		Dropped:   c.queue.Dropped(),
		Discarded: c.dctx.Discarded.Load(),
		QueueLen:  c.queue.Len(),
	}
}

// Stats returns current session statistics
//
// Thread-safe - uses atomic operations for counters.
func (c *Capture) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		SessionID:           c.sessionID,
		State:               c.State(),
		Stream:              c.stream,
		FramesPersisted:     c.persisted.Load(),
		Calibrations:        c.calibrations.Load(),
		CalibrationFailures: c.calibrationFailures.Load(),
		Temperature:         c.temp,
		TemperatureFailures: c.temperatureFailures.Load(),
		FPS:                 c.fps.Summary(),
	}

	if c.dctx != nil {
		s.FramesDelivered = c.queue.Pushed()
		s.FramesDiscarded = c.dctx.Discarded.Load()
		s.FramesDropped = c.queue.Dropped()
		s.BytesRead = c.dctx.BytesRead.Load()
	}
	if r, ok := c.device.(BusErrorReporter); ok {
		s.BusErrors = r.BusErrors()
	}

	if !c.started.IsZero() {
		end := time.Now()
		if !c.stoppedAt.IsZero() {
			end = c.stoppedAt
		}
		s.Uptime = end.Sub(c.started)
	}

	return s
}

func (c *Capture) logSummary(err error) {
	s := c.Stats()
	attrs := []any{
		"frames_persisted", s.FramesPersisted,
		"frames_delivered", s.FramesDelivered,
		"frames_dropped", s.FramesDropped,
		"frames_discarded", s.FramesDiscarded,
		"calibrations", s.Calibrations,
		"calibration_failures", s.CalibrationFailures,
		"temperature_failures", s.TemperatureFailures,
		"bus_errors", s.BusErrors.Total(),
		"uptime", s.Uptime,
		"fps_mean", fmt.Sprintf("%.2f", s.FPS.FPSMean),
		"fps_stddev", fmt.Sprintf("%.3f", s.FPS.FPSStdDev),
		"jitter_max", s.FPS.JitterMax,
		"stable", s.FPS.IsStable,
	}

	if err != nil {
		c.logger.Error("thermal-capture: session ended with error", append(attrs, "error", err)...)
		return
	}
	c.logger.Info("thermal-capture: session stopped", attrs...)
}
