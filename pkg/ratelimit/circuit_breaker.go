package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// StateClosed is normal operation, requests execute and failures
	// are counted.
	StateClosed CircuitState = iota

	// StateOpen means the failure threshold was reached. Requests are
	// waved through without executing the protected operation.
	StateOpen

	// StateHalfOpen probes recovery: the next operation runs, and its
	// outcome decides whether the circuit closes or reopens.
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit. Default 10.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a
	// half-open probe. Default 30s.
	RecoveryTimeout time.Duration

	// Clock supplies time; tests inject a manual clock. Default SystemClock.
	Clock Clock

	// Metrics records state transitions. Default NoOpMetrics.
	Metrics RateLimitMetrics

	// LimiterType labels the protected limiter, "ip" or "user".
	LimiterType string
}

// CircuitBreaker shields request handling from a failing rate limit
// backend. The trade-off is deliberate: when the circuit is open the
// limit check is skipped entirely and traffic flows unmetered, because
// a broken limiter must not take the clinic API down with it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                  sync.RWMutex
	state               CircuitState
	consecutiveFailures int
	lastFailureTime     time.Time
	lastStateChange     time.Time
}

// NewCircuitBreaker creates a circuit breaker in the closed state,
// applying defaults for any zero config value.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 10
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}

	cb := &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: config.Clock.Now(),
	}
	config.Metrics.RecordCircuitState(config.LimiterType, cb.state.String())
	return cb
}

// Execute runs the operation under breaker protection. Closed and
// half-open states run it and track the outcome; an open circuit
// returns nil without running anything.
func (cb *CircuitBreaker) Execute(operation func() error) error {
	cb.attemptRecovery()

	cb.mu.RLock()
	state := cb.state
	cb.mu.RUnlock()

	switch state {
	case StateOpen:
		return nil
	case StateHalfOpen:
		return cb.probe(operation)
	default:
		if err := operation(); err != nil {
			cb.RecordFailure()
			return err
		}
		cb.RecordSuccess()
		return nil
	}
}

// probe runs the half-open test operation. Success closes the circuit;
// failure reopens it for another recovery timeout.
func (cb *CircuitBreaker) probe(operation func() error) error {
	err := operation()

	cb.mu.Lock()
	from := cb.state
	if err != nil {
		cb.consecutiveFailures++
		cb.lastFailureTime = cb.config.Clock.Now()
		cb.transitionLocked(StateOpen)
	} else {
		cb.consecutiveFailures = 0
		cb.transitionLocked(StateClosed)
	}
	failures := cb.consecutiveFailures
	to := cb.state
	cb.mu.Unlock()

	cb.logTransition(from, to, failures)
	return err
}

// Allow reports whether a request may proceed. Every state answers
// true; the open state fails open on purpose.
func (cb *CircuitBreaker) Allow() bool {
	cb.attemptRecovery()

	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return true
}

// RecordSuccess clears the consecutive failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.consecutiveFailures > 0 {
		cb.consecutiveFailures = 0
	}
}

// RecordFailure counts a failure and opens the circuit once the
// threshold is reached from the closed state.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	from := cb.state
	cb.consecutiveFailures++
	cb.lastFailureTime = cb.config.Clock.Now()

	opened := cb.consecutiveFailures >= cb.config.FailureThreshold && cb.state == StateClosed
	if opened {
		cb.transitionLocked(StateOpen)
	}
	failures := cb.consecutiveFailures
	cb.mu.Unlock()

	if opened {
		cb.logTransition(from, StateOpen, failures)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == StateOpen
}

func (cb *CircuitBreaker) IsClosed() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == StateClosed
}

func (cb *CircuitBreaker) IsHalfOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == StateHalfOpen
}

// Reset forces the breaker back to closed with no recorded failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	cb.lastFailureTime = time.Time{}
	cb.transitionLocked(StateClosed)
}

// attemptRecovery moves an open circuit to half-open once the recovery
// timeout has elapsed since it opened.
func (cb *CircuitBreaker) attemptRecovery() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return
	}
	if cb.config.Clock.Now().Sub(cb.lastStateChange) >= cb.config.RecoveryTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
}

// transitionLocked updates the state and records the metric. Caller
// holds the write lock.
func (cb *CircuitBreaker) transitionLocked(to CircuitState) {
	cb.state = to
	cb.lastStateChange = cb.config.Clock.Now()
	cb.config.Metrics.RecordCircuitState(cb.config.LimiterType, to.String())
}

func (cb *CircuitBreaker) logTransition(from, to CircuitState, failures int) {
	attrs := []any{
		slog.String("limiter_type", cb.config.LimiterType),
		slog.String("previous_state", from.String()),
		slog.String("new_state", to.String()),
		slog.Int("consecutive_failures", failures),
	}
	if to == StateOpen {
		attrs = append(attrs, slog.Duration("recovery_timeout", cb.config.RecoveryTimeout))
	}
	slog.Warn("circuit breaker state changed", attrs...)
}

// CircuitBreakerStats is a point-in-time snapshot for monitoring.
type CircuitBreakerStats struct {
	State               CircuitState
	ConsecutiveFailures int
	LastFailureTime     time.Time
	LastStateChange     time.Time
	TimeSinceLastChange time.Duration
}

// Stats returns current circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	now := cb.config.Clock.Now()
	return CircuitBreakerStats{
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		LastFailureTime:     cb.lastFailureTime,
		LastStateChange:     cb.lastStateChange,
		TimeSinceLastChange: now.Sub(cb.lastStateChange),
	}
}
