package retry

import "time"

// Metrics receives fire-and-forget events from the executor. Implementations
// must be safe for concurrent use and must not block.
type Metrics interface {
	// RecordAttempt records one invocation of an operation.
	//
	// Parameters:
	//   - operation: Logical operation name (e.g., "ai.embed")
	//   - attempt: 1-indexed attempt number within this Run call
	//   - breaker: Breaker name, empty when no breaker participates
	RecordAttempt(operation string, attempt int, breaker string)

	// RecordWait records the computed backoff delay before the next attempt.
	RecordWait(operation string, delay time.Duration)

	// RecordExhausted records a Run call that failed every allowed attempt.
	RecordExhausted(operation string)

	// RecordRejected records a Run call rejected by an open breaker before
	// the operation was invoked.
	RecordRejected(breaker string)
}

// NoOpMetrics implements Metrics with no-op methods.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAttempt is a no-op implementation.
func (m *NoOpMetrics) RecordAttempt(operation string, attempt int, breaker string) {
	// No-op
}

// RecordWait is a no-op implementation.
func (m *NoOpMetrics) RecordWait(operation string, delay time.Duration) {
	// No-op
}

// RecordExhausted is a no-op implementation.
func (m *NoOpMetrics) RecordExhausted(operation string) {
	// No-op
}

// RecordRejected is a no-op implementation.
func (m *NoOpMetrics) RecordRejected(breaker string) {
	// No-op
}
