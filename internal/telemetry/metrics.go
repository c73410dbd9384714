package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/e7canasta/orion-care-sensor/modules/thermal-capture"

// Snapshot is the driver-side view polled on each collection.
type Snapshot struct {
	Delivered uint64
	Dropped   uint64
	Discarded uint64
	QueueLen  int
}

// Metrics holds the capture instruments. A nil *Metrics records nothing.
type Metrics struct {
	meter metric.Meter

	persisted    metric.Int64Counter
	calibrations metric.Int64Counter
	stalls       metric.Int64Counter
	fpaTemp      metric.Float64Gauge

	delivered metric.Int64ObservableCounter
	dropped   metric.Int64ObservableCounter
	discarded metric.Int64ObservableCounter
	queueLen  metric.Int64ObservableGauge
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{meter: meter}
	var err error

	if m.persisted, err = meter.Int64Counter("thermal.frames.persisted",
		metric.WithDescription("Frames written to disk"), metric.WithUnit("{frame}")); err != nil {
		return nil, fmt.Errorf("frames.persisted: %w", err)
	}
	if m.calibrations, err = meter.Int64Counter("thermal.ffc.runs",
		metric.WithDescription("Flat-field corrections requested"), metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("ffc.runs: %w", err)
	}
	if m.stalls, err = meter.Int64Counter("thermal.stream.stalls",
		metric.WithDescription("Sessions ended because no frame arrived in time")); err != nil {
		return nil, fmt.Errorf("stream.stalls: %w", err)
	}
	if m.fpaTemp, err = meter.Float64Gauge("thermal.fpa.temperature",
		metric.WithDescription("Focal plane array temperature"), metric.WithUnit("Cel")); err != nil {
		return nil, fmt.Errorf("fpa.temperature: %w", err)
	}

	if m.delivered, err = meter.Int64ObservableCounter("thermal.frames.delivered",
		metric.WithDescription("Frames accepted into the queue"), metric.WithUnit("{frame}")); err != nil {
		return nil, fmt.Errorf("frames.delivered: %w", err)
	}
	if m.dropped, err = meter.Int64ObservableCounter("thermal.frames.dropped",
		metric.WithDescription("Frames dropped because the queue was full"), metric.WithUnit("{frame}")); err != nil {
		return nil, fmt.Errorf("frames.dropped: %w", err)
	}
	if m.discarded, err = meter.Int64ObservableCounter("thermal.frames.discarded",
		metric.WithDescription("Payloads with an unexpected length"), metric.WithUnit("{frame}")); err != nil {
		return nil, fmt.Errorf("frames.discarded: %w", err)
	}
	if m.queueLen, err = meter.Int64ObservableGauge("thermal.queue.length",
		metric.WithDescription("Frames waiting to be persisted"), metric.WithUnit("{frame}")); err != nil {
		return nil, fmt.Errorf("queue.length: %w", err)
	}

	return m, nil
}

// Observe registers snap as the source of the driver-side instruments.
// The returned function unregisters it.
func (m *Metrics) Observe(snap func() Snapshot) (func() error, error) {
	if m == nil {
		return func() error { return nil }, nil
	}
	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := snap()
		o.ObserveInt64(m.delivered, int64(s.Delivered))
		o.ObserveInt64(m.dropped, int64(s.Dropped))
		o.ObserveInt64(m.discarded, int64(s.Discarded))
		o.ObserveInt64(m.queueLen, int64(s.QueueLen))
		return nil
	}, m.delivered, m.dropped, m.discarded, m.queueLen)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return reg.Unregister, nil
}

// FramePersisted counts one written frame.
func (m *Metrics) FramePersisted(ctx context.Context) {
	if m == nil {
		return
	}
	m.persisted.Add(ctx, 1)
}

// Calibration counts one FFC attempt.
func (m *Metrics) Calibration(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.calibrations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// Stall counts one pop timeout.
func (m *Metrics) Stall(ctx context.Context) {
	if m == nil {
		return
	}
	m.stalls.Add(ctx, 1)
}

// Temperature records the latest FPA reading in °C.
func (m *Metrics) Temperature(ctx context.Context, celsius float64) {
	if m == nil {
		return
	}
	m.fpaTemp.Record(ctx, celsius)
}
