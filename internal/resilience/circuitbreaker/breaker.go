// Package circuitbreaker implements a named circuit breaker state machine
// used to shield failing downstream dependencies from retry storms.
//
// Each breaker tracks consecutive failures for one logical operation class
// (e.g., one AI provider endpoint). After FailureThreshold consecutive
// failures the breaker opens and callers are rejected without invoking the
// operation. After RecoveryTimeout has elapsed the breaker moves to
// half-open lazily, on the next availability check, and the following
// attempts act as trial calls: a success closes the circuit, a failure
// reopens it.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"
)

// State represents the current state of a circuit breaker.
type State int

const (
	// StateClosed indicates normal operation; requests pass through.
	StateClosed State = iota

	// StateOpen indicates the breaker is rejecting requests without
	// attempting the operation.
	StateOpen

	// StateHalfOpen indicates the breaker is testing recovery; the next
	// attempts are allowed through as trial calls.
	StateHalfOpen
)

// String returns a string representation of the state.
func (s State) String() string {
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

// Config holds configuration for a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures required to
	// open the circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays open before allowing
	// trial calls. Default: 60 seconds.
	RecoveryTimeout time.Duration

	// Clock provides time abstraction for testing. Default: SystemClock.
	Clock Clock

	// Metrics receives state-change events. Default: NoOpMetrics.
	Metrics Metrics
}

// DefaultConfig returns a default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// CircuitBreaker is a named, independent state machine tracking consecutive
// failures and recovery timing for one logical operation class.
//
// The breaker is pure bookkeeping: it never invokes operations and never
// returns errors. Callers check IsAvailable before attempting the operation
// and report the classified outcome with RecordSuccess or RecordFailure.
//
// The open-to-half-open transition is evaluated lazily inside IsAvailable
// rather than by a background timer. Once the recovery timeout elapses,
// every concurrent caller checking availability may observe half-open and
// proceed with a trial call simultaneously. This thundering-herd window is
// an accepted trade-off for the simpler concurrency model; there is no
// single-winner trial admission.
//
// All methods are safe for concurrent use.
type CircuitBreaker struct {
	name   string
	config Config

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
}

// New creates a new circuit breaker with the given name and configuration.
//
// Zero-value config fields are filled with defaults.
func New(name string, config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}

	cb := &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}

	config.Metrics.RecordState(name, StateClosed.String())

	return cb
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsAvailable reports whether a request may proceed.
//
// It returns false only while the breaker is effectively open. When the
// recovery timeout has elapsed it transitions the breaker to half-open as a
// side effect and returns true, admitting the caller as a trial call.
func (cb *CircuitBreaker) IsAvailable() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}

	if cb.config.Clock.Now().Sub(cb.lastFailureTime) > cb.config.RecoveryTimeout {
		cb.transition(StateHalfOpen)
		return true
	}

	return false
}

// RecordSuccess records a successful attempt.
//
// In half-open state the trial succeeded and the circuit closes. In closed
// state any success resets the consecutive failure count, forgiving isolated
// transient failures.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.failureCount = 0
		cb.lastFailureTime = time.Time{}
		cb.transition(StateClosed)
	case StateClosed:
		if cb.failureCount > 0 {
			cb.failureCount = 0
		}
	case StateOpen:
		// A success cannot normally be observed while open; the count is
		// left untouched and recovery timing governs the next transition.
	}
}

// RecordFailure records a failed attempt.
//
// In closed state the consecutive failure count increments and the circuit
// opens once it reaches the threshold. In half-open state any failure
// immediately reopens the circuit with a fresh failure timestamp.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.config.Clock.Now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	case StateOpen:
		// Already open; the refreshed failure time extends the cooldown.
	}
}

// State returns the current state without side effects.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Reset forces the breaker to the closed state regardless of its current
// state. This is an administrative operation for operational recovery.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.lastFailureTime = time.Time{}
	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
}

// transition moves the breaker to the given state, emitting the metric event
// and structured log entry. Callers must hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to

	cb.config.Metrics.RecordTransition(cb.name, from.String(), to.String())

	slog.Warn("circuit breaker state changed",
		slog.String("breaker", cb.name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("consecutive_failures", cb.failureCount),
		slog.Duration("recovery_timeout", cb.config.RecoveryTimeout))
}
