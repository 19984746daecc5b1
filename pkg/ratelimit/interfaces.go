// Package ratelimit provides framework-agnostic rate limiting with
// pluggable storage backends, algorithms, and metrics collectors. The
// HTTP middleware builds on it, but nothing here depends on net/http.
package ratelimit

import (
	"context"
	"time"
)

// RateLimitStore stores per-key request timestamps. Implementations may
// be in-memory, Redis, or anything else; all methods must be safe for
// concurrent use.
type RateLimitStore interface {
	// AddRequest records a request timestamp for the key.
	AddRequest(ctx context.Context, key string, timestamp time.Time) error

	// GetRequests returns the key's timestamps newer than cutoff.
	GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error)

	// GetRequestCount returns how many of the key's timestamps are
	// newer than cutoff. Cheaper than GetRequests when only the count
	// matters.
	GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error)

	// Cleanup removes timestamps older than cutoff across all keys.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount returns the number of keys currently tracked.
	KeyCount(ctx context.Context) (int, error)

	// MemoryUsage returns the store's estimated memory use in bytes.
	MemoryUsage(ctx context.Context) (int64, error)
}

// RateLimitAlgorithm decides whether a request fits within its limit.
// Sliding window is the shipped implementation; token bucket or fixed
// window would satisfy the same interface.
type RateLimitAlgorithm interface {
	// IsAllowed checks the key against limit requests per window using
	// the given store and returns the decision with its metadata.
	IsAllowed(ctx context.Context, key string, store RateLimitStore, limit int, window time.Duration) (*RateLimitDecision, error)

	// GetWindowDuration returns the algorithm's effective window, used
	// for reset times and retry delays.
	GetWindowDuration() time.Duration
}

// RateLimitMetrics records rate limiting observability signals.
// limiterType is "ip" or "user" throughout.
type RateLimitMetrics interface {
	// RecordRequest counts an allowed check for an endpoint.
	RecordRequest(limiterType, endpoint string)

	// RecordDenied counts a denied check for an endpoint.
	RecordDenied(limiterType, endpoint string)

	// RecordAllowed is RecordRequest under a more explicit name.
	RecordAllowed(limiterType, endpoint string)

	// RecordCheckDuration observes how long a check took.
	RecordCheckDuration(limiterType string, duration time.Duration)

	// SetActiveKeys records current store occupancy.
	SetActiveKeys(limiterType string, count int)

	// RecordCircuitState records the breaker state ("closed", "open",
	// "half-open").
	RecordCircuitState(limiterType, state string)

	// RecordDegradationLevel records the degradation level
	// (0=normal, 1=relaxed, 2=minimal, 3=disabled).
	RecordDegradationLevel(limiterType string, level int)

	// RecordEviction counts keys evicted from the store.
	RecordEviction(limiterType string, count int)
}

// Clock abstracts time.Now so window math can be tested with a
// controlled clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// AtomicRateLimitStore extends RateLimitStore with a combined
// check-and-add. Stores that can hold a single lock across the check
// and the insert should implement it; the algorithm prefers it to the
// separate count-then-add path, which has a TOCTOU race under
// concurrency.
type AtomicRateLimitStore interface {
	RateLimitStore

	// CheckAndAddRequest atomically counts the key's timestamps newer
	// than cutoff and, if the count is below limit, records timestamp.
	// It returns whether the request was admitted and the resulting
	// count.
	CheckAndAddRequest(ctx context.Context, key string, timestamp time.Time, cutoff time.Time, limit int) (allowed bool, count int, err error)
}
