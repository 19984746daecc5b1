// Package retry orchestrates retries with exponential backoff around an
// optional per-operation circuit breaker.
//
// The executor treats the wrapped operation as an opaque function returning
// a result or an error. Classification of failures is supplied by the
// policy; the executor decides only whether to retry, how long to wait, and
// what to report to the breaker and the metrics sink.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/backoff"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
)

// Operation is a unit of work executed under retry. It must be idempotent
// from the caller's perspective, since the executor may invoke it several
// times. The operation is responsible for its own per-call timeout; the
// executor imposes no wall-clock budget beyond the attempt count, so callers
// needing an overall deadline wrap Run with a context deadline.
type Operation func(ctx context.Context) (interface{}, error)

// Executor runs operations under a retry policy with optional circuit
// breaker protection. It is safe for concurrent use; unrelated operations
// are never serialized against each other, and the only suspension point is
// the backoff wait between attempts.
type Executor struct {
	registry *circuitbreaker.Registry
	metrics  Metrics
}

// NewExecutor creates an executor backed by the given breaker registry.
// A nil metrics sink defaults to NoOpMetrics.
func NewExecutor(registry *circuitbreaker.Registry, metrics Metrics) *Executor {
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	return &Executor{
		registry: registry,
		metrics:  metrics,
	}
}

// BreakerStates returns the current state of every breaker in the
// executor's registry, keyed by breaker name. Used by health endpoints.
func (e *Executor) BreakerStates() map[string]string {
	states := e.registry.States()
	out := make(map[string]string, len(states))
	for name, state := range states {
		out[name] = state.String()
	}
	return out
}

// Run executes op under the given policy.
//
// If the policy names a circuit breaker and that breaker is open, Run fails
// immediately with *CircuitOpenError and the operation is never invoked.
// Otherwise the operation runs up to MaxRetries+1 times:
//
//   - success returns the result immediately and records a breaker success;
//   - an error the classifier rejects is returned as-is after recording a
//     breaker failure (the fatal path);
//   - a retryable error on the final attempt records a breaker failure and
//     returns *AttemptsExhaustedError wrapping the last cause;
//   - a retryable error with attempts remaining sleeps per the backoff
//     policy, then retries. Intermediate retryable failures do not touch the
//     breaker: its failure count moves once per Run call that ultimately
//     fails, not once per retry within it.
//
// The backoff wait is cancellable through ctx; cancellation surfaces the
// context error without a breaker update, since no terminal classification
// of the downstream dependency was reached.
func (e *Executor) Run(ctx context.Context, p Policy, op Operation) (interface{}, error) {
	if err := p.Backoff.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid backoff policy: %w", p.Operation, err)
	}

	var cb *circuitbreaker.CircuitBreaker
	if p.BreakerName != "" {
		cb = e.registry.GetOrCreate(p.BreakerName, p.Breaker)
		if !cb.IsAvailable() {
			e.metrics.RecordRejected(p.BreakerName)
			slog.Warn("request rejected by open circuit breaker",
				slog.String("operation", p.Operation),
				slog.String("breaker", p.BreakerName))
			return nil, &CircuitOpenError{Breaker: p.BreakerName}
		}
	}

	classify := p.Retryable
	if classify == nil {
		classify = DefaultClassifier
	}

	maxAttempts := p.Backoff.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.metrics.RecordAttempt(p.Operation, attempt, p.BreakerName)

		result, err := op(ctx)
		if err == nil {
			if cb != nil {
				cb.RecordSuccess()
			}
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.String("operation", p.Operation),
					slog.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !classify(err) {
			if cb != nil {
				cb.RecordFailure()
			}
			slog.Warn("non-retryable error, aborting",
				slog.String("operation", p.Operation),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return nil, err
		}

		if attempt == maxAttempts {
			break
		}

		delay := backoff.Delay(attempt, p.Backoff)
		e.metrics.RecordWait(p.Operation, delay)
		slog.Warn("operation failed, retrying",
			slog.String("operation", p.Operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: retry aborted: %w", p.Operation, ctx.Err())
		}
	}

	if cb != nil {
		cb.RecordFailure()
	}
	e.metrics.RecordExhausted(p.Operation)
	slog.Error("retry attempts exhausted",
		slog.String("operation", p.Operation),
		slog.Int("attempts", maxAttempts),
		slog.Any("error", lastErr))

	return nil, &AttemptsExhaustedError{
		Operation: p.Operation,
		Attempts:  maxAttempts,
		Err:       lastErr,
	}
}
