package circuitbreaker

// Metrics receives circuit breaker state-change events.
//
// Implementations must be safe for concurrent use; the breaker calls them
// while holding its internal lock, so they must not call back into the
// breaker.
type Metrics interface {
	// RecordTransition records a state transition for the named breaker.
	//
	// Parameters:
	//   - breaker: Breaker name (e.g., "openai-embedding")
	//   - from: Previous state ("closed", "open", "half-open")
	//   - to: New state
	RecordTransition(breaker, from, to string)

	// RecordState records the current state of the named breaker as a gauge.
	RecordState(breaker, state string)
}

// NoOpMetrics implements Metrics with no-op methods.
//
// Useful for tests and for callers that do not need breaker observability.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordTransition is a no-op implementation.
func (m *NoOpMetrics) RecordTransition(breaker, from, to string) {
	// No-op
}

// RecordState is a no-op implementation.
func (m *NoOpMetrics) RecordState(breaker, state string) {
	// No-op
}
