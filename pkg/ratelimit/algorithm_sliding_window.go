package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindowAlgorithm counts individual request timestamps inside a
// moving window, so limits apply smoothly instead of resetting at fixed
// boundaries. It also guards against the system clock moving backward:
// each key remembers its last valid timestamp, and a skewed reading
// cannot reopen an exhausted window.
type SlidingWindowAlgorithm struct {
	clock Clock

	mu sync.RWMutex

	// lastTimestamps pins each key to the latest time it has seen.
	lastTimestamps map[string]time.Time

	// windowDuration is the window last passed to IsAllowed.
	windowDuration time.Duration
}

// NewSlidingWindowAlgorithm creates the algorithm, defaulting to
// SystemClock when clock is nil.
func NewSlidingWindowAlgorithm(clock Clock) *SlidingWindowAlgorithm {
	if clock == nil {
		clock = &SystemClock{}
	}

	return &SlidingWindowAlgorithm{
		clock:          clock,
		lastTimestamps: make(map[string]time.Time),
	}
}

// IsAllowed decides whether one more request fits inside the window for
// key. When the store implements AtomicRateLimitStore the count and the
// insert happen under one lock; otherwise a check-then-add fallback is
// used for stores that cannot do both atomically.
func (a *SlidingWindowAlgorithm) IsAllowed(
	ctx context.Context,
	key string,
	store RateLimitStore,
	limit int,
	window time.Duration,
) (*RateLimitDecision, error) {
	a.windowDuration = window

	now := a.getValidTimestamp(key)
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	if atomicStore, ok := store.(AtomicRateLimitStore); ok {
		return a.isAllowedAtomic(ctx, key, atomicStore, limit, cutoff, now, resetAt)
	}
	return a.isAllowedNonAtomic(ctx, key, store, limit, cutoff, now, resetAt)
}

func (a *SlidingWindowAlgorithm) isAllowedAtomic(
	ctx context.Context,
	key string,
	store AtomicRateLimitStore,
	limit int,
	cutoff time.Time,
	now time.Time,
	resetAt time.Time,
) (*RateLimitDecision, error) {
	allowed, count, err := store.CheckAndAddRequest(ctx, key, now, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to check and add request: %w", err)
	}

	if allowed {
		return NewAllowedDecision(key, "unknown", limit, limit-count, resetAt), nil
	}

	decision := NewDeniedDecision(key, "unknown", limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// isAllowedNonAtomic reads the count and then records the request as
// two store calls. Concurrent callers can race between them, so atomic
// stores are preferred in production.
func (a *SlidingWindowAlgorithm) isAllowedNonAtomic(
	ctx context.Context,
	key string,
	store RateLimitStore,
	limit int,
	cutoff time.Time,
	now time.Time,
	resetAt time.Time,
) (*RateLimitDecision, error) {
	count, err := store.GetRequestCount(ctx, key, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get request count: %w", err)
	}

	if count < limit {
		if err := store.AddRequest(ctx, key, now); err != nil {
			return nil, fmt.Errorf("failed to add request: %w", err)
		}
		remaining := limit - count - 1
		return NewAllowedDecision(key, "unknown", limit, remaining, resetAt), nil
	}

	decision := NewDeniedDecision(key, "unknown", limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// GetWindowDuration returns the window last passed to IsAllowed.
func (a *SlidingWindowAlgorithm) GetWindowDuration() time.Duration {
	return a.windowDuration
}

// getValidTimestamp reads the clock and refuses to go backward for a
// key it has seen before. NTP corrections or a manual time change would
// otherwise let a burst through again; the skew is logged and the last
// valid timestamp is reused until the clock catches up.
func (a *SlidingWindowAlgorithm) getValidTimestamp(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	lastSeen, exists := a.lastTimestamps[key]

	if exists && now.Before(lastSeen) {
		slog.Warn("clock skew detected, using last valid timestamp",
			slog.String("key", key),
			slog.Time("now", now),
			slog.Time("last_seen", lastSeen),
			slog.Duration("skew", lastSeen.Sub(now)),
		)
		return lastSeen
	}

	a.lastTimestamps[key] = now
	return now
}

// CleanupExpiredTimestamps drops skew-tracking entries older than
// maxAge so inactive keys do not accumulate. Returns the number removed.
func (a *SlidingWindowAlgorithm) CleanupExpiredTimestamps(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-maxAge)
	removed := 0
	for key, timestamp := range a.lastTimestamps {
		if timestamp.Before(cutoff) {
			delete(a.lastTimestamps, key)
			removed++
		}
	}

	if removed > 0 {
		slog.Debug("cleaned up expired timestamp entries",
			slog.Int("removed", removed),
			slog.Int("remaining", len(a.lastTimestamps)),
		)
	}
	return removed
}

// GetTrackedKeysCount returns how many keys have skew-tracking entries.
func (a *SlidingWindowAlgorithm) GetTrackedKeysCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.lastTimestamps)
}
