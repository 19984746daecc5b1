package slo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the latency reservoir per flush window. At typical
// request rates a window holds far fewer samples; under burst load the
// ring simply overwrites the oldest entries.
const maxSamples = 8192

// Tracker accumulates per-request outcomes over a flush window and
// publishes the derived SLI gauges (availability, error rate, latency
// percentiles). Observe is called from the HTTP metrics middleware on
// every request; Run flushes the window on a fixed interval.
type Tracker struct {
	mu       sync.Mutex
	total    int
	errors   int
	latency  []time.Duration
	latIndex int
}

// NewTracker returns an empty tracker ready to receive observations.
func NewTracker() *Tracker {
	return &Tracker{
		latency: make([]time.Duration, 0, 1024),
	}
}

// Observe records a single request outcome. Status codes of 500 and
// above count against availability; 4xx responses are client faults
// and do not.
func (t *Tracker) Observe(statusCode int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if statusCode >= 500 {
		t.errors++
	}

	if len(t.latency) < maxSamples {
		t.latency = append(t.latency, duration)
	} else {
		t.latency[t.latIndex] = duration
		t.latIndex = (t.latIndex + 1) % maxSamples
	}
}

// Flush computes the window's SLIs, publishes them to the gauges, and
// resets the window. A window with no traffic publishes full
// availability and zero latency rather than carrying stale values.
func (t *Tracker) Flush() {
	t.mu.Lock()
	total := t.total
	errors := t.errors
	samples := make([]time.Duration, len(t.latency))
	copy(samples, t.latency)
	t.total = 0
	t.errors = 0
	t.latency = t.latency[:0]
	t.latIndex = 0
	t.mu.Unlock()

	if total == 0 {
		UpdateAvailability(1.0)
		UpdateErrorRate(0.0)
		UpdateLatencyP95(0.0)
		UpdateLatencyP99(0.0)
		return
	}

	UpdateAvailability(float64(total-errors) / float64(total))
	UpdateErrorRate(float64(errors) / float64(total))

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	UpdateLatencyP95(percentile(samples, 0.95).Seconds())
	UpdateLatencyP99(percentile(samples, 0.99).Seconds())
}

// percentile returns the value at quantile q from an ascending-sorted
// sample set using nearest-rank selection.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(q*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Run flushes the tracker every interval until ctx is cancelled,
// performing a final flush on shutdown so the last partial window is
// not lost.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

// defaultTracker backs the package-level helpers used by the HTTP
// middleware, mirroring how the gauges themselves are package-level.
var defaultTracker = NewTracker()

// Observe records a request outcome on the default tracker.
func Observe(statusCode int, duration time.Duration) {
	defaultTracker.Observe(statusCode, duration)
}

// Run starts the default tracker's flush loop.
func Run(ctx context.Context, interval time.Duration) {
	defaultTracker.Run(ctx, interval)
}
