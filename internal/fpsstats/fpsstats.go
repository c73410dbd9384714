// Package fpsstats summarizes the cadence of persisted frames.
package fpsstats

import (
	"math"
	"sync"
	"time"
)

const (
	// A session is stable when the instantaneous-FPS stddev stays under 15%
	// of the mean and the mean jitter under 20% of the expected interval.
	fpsStabilityThreshold    = 0.15
	jitterStabilityThreshold = 0.20

	// DefaultWindow is the number of timestamps kept (~28s at 9 fps).
	DefaultWindow = 256
)

// Summary describes frame cadence over a window of timestamps.
type Summary struct {
	Frames     int
	Span       time.Duration
	FPSMean    float64
	FPSStdDev  float64
	FPSMin     float64
	FPSMax     float64
	JitterMean time.Duration
	JitterMax  time.Duration
	IsStable   bool
}

// Window is a bounded ring of timestamps, safe for concurrent use.
type Window struct {
	mu      sync.Mutex
	samples []time.Time
	next    int
	count   int
}

// NewWindow keeps the last size timestamps. A size below 2 uses DefaultWindow.
func NewWindow(size int) *Window {
	if size < 2 {
		size = DefaultWindow
	}
	return &Window{samples: make([]time.Time, size)}
}

// Add records one timestamp.
func (w *Window) Add(t time.Time) {
	w.mu.Lock()
	w.samples[w.next] = t
	w.next = (w.next + 1) % len(w.samples)
	if w.count < len(w.samples) {
		w.count++
	}
	w.mu.Unlock()
}

// Len returns the number of timestamps held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Summary computes cadence statistics over the held timestamps.
func (w *Window) Summary() Summary {
	w.mu.Lock()
	ordered := make([]time.Time, 0, w.count)
	start := (w.next - w.count + len(w.samples)) % len(w.samples)
	for i := 0; i < w.count; i++ {
		ordered = append(ordered, w.samples[(start+i)%len(w.samples)])
	}
	w.mu.Unlock()

	return Calculate(ordered)
}

// Calculate computes cadence statistics for timestamps in arrival order.
func Calculate(times []time.Time) Summary {
	s := Summary{Frames: len(times)}
	if len(times) < 2 {
		return s
	}

	s.Span = times[len(times)-1].Sub(times[0])
	if s.Span <= 0 {
		return s
	}

	intervals := len(times) - 1
	s.FPSMean = float64(intervals) / s.Span.Seconds()

	var instant []float64
	for i := 1; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]).Seconds(); d > 0 {
			instant = append(instant, 1/d)
		}
	}
	if len(instant) == 0 {
		return s
	}

	s.FPSMin, s.FPSMax = instant[0], instant[0]
	var sumSquares float64
	for _, fps := range instant {
		s.FPSMin = math.Min(s.FPSMin, fps)
		s.FPSMax = math.Max(s.FPSMax, fps)
		sumSquares += (fps - s.FPSMean) * (fps - s.FPSMean)
	}
	s.FPSStdDev = math.Sqrt(sumSquares / float64(len(instant)))

	expected := 1 / s.FPSMean
	var jitterSum float64
	var jitterMax float64
	for i := 1; i < len(times); i++ {
		j := math.Abs(times[i].Sub(times[i-1]).Seconds() - expected)
		jitterSum += j
		jitterMax = math.Max(jitterMax, j)
	}
	jitterMean := jitterSum / float64(intervals)

	s.JitterMean = time.Duration(jitterMean * float64(time.Second))
	s.JitterMax = time.Duration(jitterMax * float64(time.Second))
	s.IsStable = s.FPSStdDev < s.FPSMean*fpsStabilityThreshold &&
		jitterMean < expected*jitterStabilityThreshold

	return s
}
