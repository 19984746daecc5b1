package ratelimit

import "time"

// NoOpMetrics satisfies RateLimitMetrics while recording nothing. Use
// it in tests, in development mode, or when benchmarking the limiter
// itself without metrics overhead.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (m *NoOpMetrics) RecordRequest(limiterType, endpoint string) {}

func (m *NoOpMetrics) RecordDenied(limiterType, endpoint string) {}

func (m *NoOpMetrics) RecordAllowed(limiterType, endpoint string) {}

func (m *NoOpMetrics) RecordCheckDuration(limiterType string, duration time.Duration) {}

func (m *NoOpMetrics) SetActiveKeys(limiterType string, count int) {}

func (m *NoOpMetrics) RecordCircuitState(limiterType, state string) {}

func (m *NoOpMetrics) RecordDegradationLevel(limiterType string, level int) {}

func (m *NoOpMetrics) RecordEviction(limiterType string, count int) {}
