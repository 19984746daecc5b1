package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// pruneBefore keeps only timestamps newer than the cutoff.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	var kept []time.Time
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// mockRateLimitStore is an in-memory RateLimitStore with optional error
// injection via failErr, which makes every operation fail.
type mockRateLimitStore struct {
	mu       sync.RWMutex
	requests map[string][]time.Time
	failErr  error
}

func newMockRateLimitStore() *mockRateLimitStore {
	return &mockRateLimitStore{requests: make(map[string][]time.Time)}
}

func (m *mockRateLimitStore) AddRequest(ctx context.Context, key string, timestamp time.Time) error {
	if m.failErr != nil {
		return m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key] = append(m.requests[key], timestamp)
	return nil
}

func (m *mockRateLimitStore) GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	timestamps, exists := m.requests[key]
	if !exists {
		return []time.Time{}, nil
	}
	return pruneBefore(timestamps, cutoff), nil
}

func (m *mockRateLimitStore) GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error) {
	timestamps, err := m.GetRequests(ctx, key, cutoff)
	if err != nil {
		return 0, err
	}
	return len(timestamps), nil
}

func (m *mockRateLimitStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	if m.failErr != nil {
		return m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, timestamps := range m.requests {
		if kept := pruneBefore(timestamps, cutoff); len(kept) > 0 {
			m.requests[key] = kept
		} else {
			delete(m.requests, key)
		}
	}
	return nil
}

func (m *mockRateLimitStore) KeyCount(ctx context.Context) (int, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests), nil
}

func (m *mockRateLimitStore) MemoryUsage(ctx context.Context) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var usage int64
	for key, timestamps := range m.requests {
		usage += int64(len(key)) + int64(len(timestamps)*8)
	}
	return usage, nil
}

// CheckAndAddRequest implements AtomicRateLimitStore so the mock exercises
// the same check-and-record path the production store takes.
func (m *mockRateLimitStore) CheckAndAddRequest(ctx context.Context, key string, timestamp time.Time, cutoff time.Time, limit int) (allowed bool, count int, err error) {
	if m.failErr != nil {
		return false, 0, m.failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	currentCount := len(pruneBefore(m.requests[key], cutoff))
	if currentCount >= limit {
		return false, currentCount, nil
	}

	m.requests[key] = append(m.requests[key], timestamp)
	return true, currentCount + 1, nil
}

// mockRateLimitAlgorithm returns a fixed decision or error when set, and
// otherwise behaves like a plain sliding window against the store.
type mockRateLimitAlgorithm struct {
	decision *ratelimit.RateLimitDecision
	err      error
	window   time.Duration
}

func (m *mockRateLimitAlgorithm) IsAllowed(ctx context.Context, key string, store ratelimit.RateLimitStore, limit int, window time.Duration) (*ratelimit.RateLimitDecision, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.decision != nil {
		return m.decision, nil
	}

	now := time.Now()
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	// Prefer the atomic path when the store offers one.
	if atomicStore, ok := store.(ratelimit.AtomicRateLimitStore); ok {
		allowed, count, err := atomicStore.CheckAndAddRequest(ctx, key, now, cutoff, limit)
		if err != nil {
			return nil, err
		}
		if allowed {
			return ratelimit.NewAllowedDecision(key, "test", limit, limit-count, resetAt), nil
		}
		return ratelimit.NewDeniedDecision(key, "test", limit, resetAt), nil
	}

	count, err := store.GetRequestCount(ctx, key, cutoff)
	if err != nil {
		return nil, err
	}

	if count < limit {
		remaining := limit - count - 1
		if remaining < 0 {
			remaining = 0
		}
		store.AddRequest(ctx, key, now)
		return ratelimit.NewAllowedDecision(key, "test", limit, remaining, resetAt), nil
	}
	return ratelimit.NewDeniedDecision(key, "test", limit, resetAt), nil
}

func (m *mockRateLimitAlgorithm) GetWindowDuration() time.Duration {
	if m.window > 0 {
		return m.window
	}
	return 1 * time.Minute
}

// mockRateLimitMetrics counts recorder calls for assertions.
type mockRateLimitMetrics struct {
	mu                sync.Mutex
	requests          int
	denied            int
	allowed           int
	checkDurations    []time.Duration
	activeKeys        int
	circuitStates     []string
	degradationLevels []int
	evictions         int
}

func newMockRateLimitMetrics() *mockRateLimitMetrics {
	return &mockRateLimitMetrics{}
}

func (m *mockRateLimitMetrics) RecordRequest(limiterType, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
}

func (m *mockRateLimitMetrics) RecordDenied(limiterType, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied++
}

func (m *mockRateLimitMetrics) RecordAllowed(limiterType, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowed++
}

func (m *mockRateLimitMetrics) RecordCheckDuration(limiterType string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkDurations = append(m.checkDurations, duration)
}

func (m *mockRateLimitMetrics) SetActiveKeys(limiterType string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeKeys = count
}

func (m *mockRateLimitMetrics) RecordCircuitState(limiterType, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitStates = append(m.circuitStates, state)
}

func (m *mockRateLimitMetrics) RecordDegradationLevel(limiterType string, level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradationLevels = append(m.degradationLevels, level)
}

func (m *mockRateLimitMetrics) RecordEviction(limiterType string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions += count
}

// mockClock is a manually advanced Clock.
type mockClock struct {
	mu      sync.Mutex
	current time.Time
}

func newMockClock(start time.Time) *mockClock {
	return &mockClock{current: start}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
