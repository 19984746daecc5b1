package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// MockClock is a manually advanced Clock shared by the package tests.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func newMemoryStore(maxKeys int, clock Clock) *InMemoryRateLimitStore {
	return NewInMemoryRateLimitStore(InMemoryStoreConfig{MaxKeys: maxKeys, Clock: clock})
}

func mustAdd(t *testing.T, store *InMemoryRateLimitStore, key string, ts time.Time) {
	t.Helper()
	if err := store.AddRequest(context.Background(), key, ts); err != nil {
		t.Fatalf("AddRequest() error = %v", err)
	}
}

func keyCount(t *testing.T, store *InMemoryRateLimitStore) int {
	t.Helper()
	count, err := store.KeyCount(context.Background())
	if err != nil {
		t.Fatalf("KeyCount() error = %v", err)
	}
	return count
}

func TestNewInMemoryRateLimitStore(t *testing.T) {
	tests := []struct {
		name        string
		config      InMemoryStoreConfig
		wantMaxKeys int
	}{
		{name: "explicit capacity", config: InMemoryStoreConfig{MaxKeys: 5000, Clock: &SystemClock{}}, wantMaxKeys: 5000},
		{name: "zero capacity defaults", config: InMemoryStoreConfig{Clock: &SystemClock{}}, wantMaxKeys: 10000},
		{name: "negative capacity defaults", config: InMemoryStoreConfig{MaxKeys: -1, Clock: &SystemClock{}}, wantMaxKeys: 10000},
		{name: "nil clock gets system clock", config: InMemoryStoreConfig{MaxKeys: 5000}, wantMaxKeys: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryRateLimitStore(tt.config)
			if store == nil {
				t.Fatal("NewInMemoryRateLimitStore() returned nil")
			}
			if store.maxKeys != tt.wantMaxKeys {
				t.Errorf("maxKeys = %v, want %v", store.maxKeys, tt.wantMaxKeys)
			}
			if store.clock == nil {
				t.Error("clock should not be nil")
			}
		})
	}
}

func TestDefaultInMemoryStoreConfig(t *testing.T) {
	config := DefaultInMemoryStoreConfig()
	if config.MaxKeys != 10000 {
		t.Errorf("MaxKeys = %v, want 10000", config.MaxKeys)
	}
	if config.Clock == nil {
		t.Error("Clock should not be nil")
	}
}

func TestInMemoryRateLimitStore_AddRequest(t *testing.T) {
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	mustAdd(t, store, "therapist-maya", now)
	if got := keyCount(t, store); got != 1 {
		t.Errorf("KeyCount() = %v, want 1", got)
	}

	// Same key again does not grow the key set.
	mustAdd(t, store, "therapist-maya", now.Add(time.Second))
	if got := keyCount(t, store); got != 1 {
		t.Errorf("KeyCount() = %v, want 1 for repeated key", got)
	}

	mustAdd(t, store, "therapist-adi", now)
	if got := keyCount(t, store); got != 2 {
		t.Errorf("KeyCount() = %v, want 2", got)
	}
}

func TestInMemoryRateLimitStore_GetRequests(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	for _, ts := range []time.Time{
		now.Add(-10 * time.Minute),
		now.Add(-5 * time.Minute),
		now.Add(-2 * time.Minute),
		now.Add(-30 * time.Second),
	} {
		mustAdd(t, store, "therapist-maya", ts)
	}

	tests := []struct {
		name      string
		cutoff    time.Time
		wantCount int
	}{
		{"cutoff before all requests", now.Add(-15 * time.Minute), 4},
		{"cutoff inside the window", now.Add(-3 * time.Minute), 2},
		{"cutoff after all requests", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests, err := store.GetRequests(ctx, "therapist-maya", tt.cutoff)
			if err != nil {
				t.Fatalf("GetRequests() error = %v", err)
			}
			if len(requests) != tt.wantCount {
				t.Errorf("GetRequests() count = %v, want %v", len(requests), tt.wantCount)
			}
		})
	}

	requests, err := store.GetRequests(ctx, "unknown-key", now)
	if err != nil {
		t.Fatalf("GetRequests() error = %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("GetRequests() for unknown key = %v entries, want 0", len(requests))
	}
}

func TestInMemoryRateLimitStore_GetRequestCount(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	for i := 0; i < 5; i++ {
		mustAdd(t, store, "therapist-maya", now.Add(time.Duration(i)*time.Second))
	}

	count, err := store.GetRequestCount(ctx, "therapist-maya", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetRequestCount() error = %v", err)
	}
	if count != 5 {
		t.Errorf("GetRequestCount() = %v, want 5", count)
	}

	// Only timestamps strictly after the cutoff count: 3s and 4s.
	count, err = store.GetRequestCount(ctx, "therapist-maya", now.Add(2*time.Second))
	if err != nil {
		t.Fatalf("GetRequestCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("GetRequestCount() = %v, want 2", count)
	}

	count, err = store.GetRequestCount(ctx, "unknown-key", now)
	if err != nil {
		t.Fatalf("GetRequestCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("GetRequestCount() for unknown key = %v, want 0", count)
	}
}

func TestInMemoryRateLimitStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	mustAdd(t, store, "client-portal-1", now.Add(-2*time.Hour))
	mustAdd(t, store, "client-portal-2", now.Add(-30*time.Minute))
	mustAdd(t, store, "client-portal-3", now.Add(-5*time.Minute))

	if err := store.Cleanup(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	count, err := store.GetRequestCount(ctx, "client-portal-1", time.Time{})
	if err != nil {
		t.Fatalf("GetRequestCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("fully expired key should have 0 requests after cleanup, got %v", count)
	}

	if got := keyCount(t, store); got != 2 {
		t.Errorf("KeyCount() = %v, want 2 after cleanup", got)
	}
}

func TestInMemoryRateLimitStore_LRUEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	for i := 0; i < 10; i++ {
		mustAdd(t, store, "client-"+string(rune('A'+i)), now)
	}
	if got := keyCount(t, store); got != 10 {
		t.Fatalf("KeyCount() = %v, want 10", got)
	}

	// Capacity is full, the next key evicts the oldest.
	mustAdd(t, store, "client-NEW", now)

	if got := keyCount(t, store); got != 10 {
		t.Errorf("KeyCount() = %v, want 10 after eviction", got)
	}
	count, err := store.GetRequestCount(ctx, "client-NEW", time.Time{})
	if err != nil {
		t.Fatalf("GetRequestCount() error = %v", err)
	}
	if count == 0 {
		t.Error("newly added key should survive the eviction")
	}
}

func TestInMemoryRateLimitStore_MemoryUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	usage, err := store.MemoryUsage(ctx)
	if err != nil {
		t.Fatalf("MemoryUsage() error = %v", err)
	}
	if usage != 0 {
		t.Errorf("MemoryUsage() for empty store = %v, want 0", usage)
	}

	for i := 0; i < 5; i++ {
		for j := 0; j < 10; j++ {
			mustAdd(t, store, "client-"+string(rune('A'+i)), now.Add(time.Duration(j)*time.Second))
		}
	}

	usage, err = store.MemoryUsage(ctx)
	if err != nil {
		t.Fatalf("MemoryUsage() error = %v", err)
	}
	if usage == 0 {
		t.Error("MemoryUsage() should be > 0 after adding requests")
	}
}

func TestInMemoryRateLimitStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(1000, NewMockClock(now))

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "client-" + string(rune('A'+id))
			for j := 0; j < perGoroutine; j++ {
				if err := store.AddRequest(ctx, key, now.Add(time.Duration(j)*time.Millisecond)); err != nil {
					t.Errorf("AddRequest() error = %v", err)
				}
			}
		}(i)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "client-" + string(rune('A'+id))
			for j := 0; j < perGoroutine; j++ {
				if _, err := store.GetRequestCount(ctx, key, now); err != nil {
					t.Errorf("GetRequestCount() error = %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if got := keyCount(t, store); got != goroutines {
		t.Errorf("KeyCount() = %v, want %v", got, goroutines)
	}
	for i := 0; i < goroutines; i++ {
		key := "client-" + string(rune('A'+i))
		count, err := store.GetRequestCount(ctx, key, time.Time{})
		if err != nil {
			t.Fatalf("GetRequestCount() error = %v", err)
		}
		if count != perGoroutine {
			t.Errorf("key %v has %v requests, want %v", key, count, perGoroutine)
		}
	}
}

func TestInMemoryRateLimitStore_EdgeCases(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMemoryStore(10, NewMockClock(now))

	t.Run("empty key", func(t *testing.T) {
		mustAdd(t, store, "", now)

		count, err := store.GetRequestCount(ctx, "", time.Time{})
		if err != nil {
			t.Fatalf("GetRequestCount() error = %v", err)
		}
		if count != 1 {
			t.Errorf("GetRequestCount() = %v, want 1", count)
		}
	})

	t.Run("very long key", func(t *testing.T) {
		mustAdd(t, store, string(make([]byte, 10000)), now)
	})

	t.Run("zero timestamp", func(t *testing.T) {
		mustAdd(t, store, "client-zero", time.Time{})

		count, err := store.GetRequestCount(ctx, "client-zero", time.Time{}.Add(-time.Second))
		if err != nil {
			t.Fatalf("GetRequestCount() error = %v", err)
		}
		if count != 1 {
			t.Errorf("GetRequestCount() = %v, want 1", count)
		}
	})
}
