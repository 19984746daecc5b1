// Package backoff computes retry wait durations with exponential growth and jitter.
// It is a pure calculation package; the retry executor decides when to sleep.
package backoff

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy holds the parameters for exponential backoff with jitter.
// A Policy is immutable configuration; construct one per operation type.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// 0 means a single attempt with no retries.
	MaxRetries int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the pre-jitter delay.
	MaxDelay time.Duration

	// ExponentialBase is the growth factor per attempt. Must be >= 1.
	// A base of 1 yields a constant pre-jitter delay.
	ExponentialBase float64

	// JitterFactor is the fraction of the capped delay added as random
	// jitter, in [0, 1]. 0 makes the delay fully deterministic.
	JitterFactor float64
}

// Validate checks that the policy parameters are internally consistent.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %v", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max delay %v must be >= base delay %v", p.MaxDelay, p.BaseDelay)
	}
	if p.ExponentialBase < 1 {
		return fmt.Errorf("exponential base must be >= 1, got %g", p.ExponentialBase)
	}
	if p.JitterFactor < 0 || p.JitterFactor > 1 {
		return fmt.Errorf("jitter factor must be in [0, 1], got %g", p.JitterFactor)
	}
	return nil
}

// DefaultPolicy returns a general-purpose backoff policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		BaseDelay:       1 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		JitterFactor:    0.1,
	}
}

// Delay returns the wait duration before attempt+1, given that attempt
// (1-indexed) has just failed. No delay is computed before the first attempt,
// so the smallest meaningful argument is 1. Calling Delay with attempt < 1 is
// a caller contract violation and returns 0.
//
// The pre-jitter component is min(BaseDelay * ExponentialBase^(attempt-1),
// MaxDelay); uniform random jitter in [0, JitterFactor*capped] is added on
// top to desynchronize concurrent retriers hitting the same dependency.
// The result is always within [0, MaxDelay*(1+JitterFactor)].
func Delay(attempt int, p Policy) time.Duration {
	if attempt < 1 {
		return 0
	}

	exp := float64(p.BaseDelay) * math.Pow(p.ExponentialBase, float64(attempt-1))
	capped := time.Duration(exp)
	if exp >= float64(p.MaxDelay) || exp > float64(math.MaxInt64) {
		capped = p.MaxDelay
	}

	if p.JitterFactor <= 0 {
		return capped
	}

	// #nosec G404 -- math/rand is sufficient for backoff jitter;
	// cryptographic randomness is not required here.
	jitter := time.Duration(rand.Float64() * p.JitterFactor * float64(capped))
	return capped + jitter
}
