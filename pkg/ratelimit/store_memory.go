// Package ratelimit provides framework-agnostic rate limiting functionality.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryRateLimitStore keeps request timestamps per key (an IP, a
// user hash) in process memory. Capacity is bounded by MaxKeys with
// LRU eviction, so a flood of distinct keys cannot grow the map
// without bound. Reads take an RLock; the workload is read-heavy.
type InMemoryRateLimitStore struct {
	mu       sync.RWMutex
	requests map[string]*keyBucket
	maxKeys  int
	clock    Clock
	lru      *lruIndex
}

// keyBucket holds the recorded timestamps for one key.
type keyBucket struct {
	timestamps []time.Time
	lastAccess time.Time
}

// lruIndex is a doubly-linked list of keys ordered by recency, with a
// map for O(1) lookup. Head is most recently used.
type lruIndex struct {
	head *lruNode
	tail *lruNode
	keys map[string]*lruNode
}

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// InMemoryStoreConfig holds configuration for InMemoryRateLimitStore.
type InMemoryStoreConfig struct {
	// MaxKeys caps the number of tracked keys. Least recently used
	// keys are evicted at capacity. Default 10000.
	MaxKeys int

	// Clock supplies time; tests inject a manual clock. Default SystemClock.
	Clock Clock
}

// DefaultInMemoryStoreConfig returns the default configuration.
func DefaultInMemoryStoreConfig() InMemoryStoreConfig {
	return InMemoryStoreConfig{
		MaxKeys: 10000,
		Clock:   &SystemClock{},
	}
}

// NewInMemoryRateLimitStore creates a store with the given configuration,
// applying defaults for zero values.
func NewInMemoryRateLimitStore(config InMemoryStoreConfig) *InMemoryRateLimitStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}

	return &InMemoryRateLimitStore{
		requests: make(map[string]*keyBucket),
		maxKeys:  config.MaxKeys,
		clock:    config.Clock,
		lru:      &lruIndex{keys: make(map[string]*lruNode)},
	}
}

// AddRequest records a request timestamp for key, evicting the least
// recently used keys first if a new key would exceed capacity.
func (s *InMemoryRateLimitStore) AddRequest(ctx context.Context, key string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addLocked(key, timestamp)
	return nil
}

// addLocked is the shared append path. Caller holds the write lock.
func (s *InMemoryRateLimitStore) addLocked(key string, timestamp time.Time) {
	bucket, exists := s.requests[key]
	if !exists && len(s.requests) >= s.maxKeys {
		s.evictLRU()
	}

	if !exists {
		bucket = &keyBucket{
			timestamps: make([]time.Time, 0, 100),
			lastAccess: timestamp,
		}
		s.requests[key] = bucket
	} else {
		bucket.lastAccess = timestamp
	}

	bucket.timestamps = append(bucket.timestamps, timestamp)
	s.lru.touch(key)
}

// GetRequests returns the timestamps for key that fall strictly after
// the cutoff. Unknown keys return an empty slice.
func (s *InMemoryRateLimitStore) GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, exists := s.requests[key]
	if !exists {
		return []time.Time{}, nil
	}

	result := make([]time.Time, 0, len(bucket.timestamps))
	for _, ts := range bucket.timestamps {
		if ts.After(cutoff) {
			result = append(result, ts)
		}
	}
	return result, nil
}

// GetRequestCount counts timestamps strictly after the cutoff without
// materializing them.
func (s *InMemoryRateLimitStore) GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, exists := s.requests[key]
	if !exists {
		return 0, nil
	}
	return countAfter(bucket.timestamps, cutoff), nil
}

func countAfter(timestamps []time.Time, cutoff time.Time) int {
	count := 0
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

// Cleanup drops timestamps at or before the cutoff from every key, and
// drops keys left with nothing.
func (s *InMemoryRateLimitStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	for key, bucket := range s.requests {
		fresh := make([]time.Time, 0, len(bucket.timestamps))
		for _, ts := range bucket.timestamps {
			if ts.After(cutoff) {
				fresh = append(fresh, ts)
			}
		}
		if len(fresh) == 0 {
			stale = append(stale, key)
		} else {
			bucket.timestamps = fresh
		}
	}

	for _, key := range stale {
		delete(s.requests, key)
		s.lru.remove(key)
	}
	return nil
}

// KeyCount returns the number of tracked keys.
func (s *InMemoryRateLimitStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.requests), nil
}

// MemoryUsage estimates the store's footprint in bytes from per-entry
// constants: map entry, bucket struct, 24 bytes per timestamp, and the
// LRU node for each key.
func (s *InMemoryRateLimitStore) MemoryUsage(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const (
		mapEntryOverhead = 48
		timestampSize    = 24
		bucketOverhead   = 32
		lruNodeSize      = 48
	)

	var total int64
	for _, bucket := range s.requests {
		total += mapEntryOverhead + bucketOverhead
		total += int64(len(bucket.timestamps) * timestampSize)
	}
	total += int64(len(s.lru.keys) * lruNodeSize)
	return total, nil
}

// evictLRU removes 10% of capacity (at least one key) from the cold end
// of the LRU list. Caller holds the write lock.
func (s *InMemoryRateLimitStore) evictLRU() {
	evictCount := s.maxKeys / 10
	if evictCount < 1 {
		evictCount = 1
	}

	for evicted := 0; evicted < evictCount && s.lru.tail != nil; evicted++ {
		key := s.lru.tail.key
		delete(s.requests, key)
		s.lru.remove(key)
	}
}

// touch moves key to the most recently used position, inserting it if
// absent. Caller holds the store's write lock.
func (l *lruIndex) touch(key string) {
	if _, exists := l.keys[key]; exists {
		l.remove(key)
	}

	node := &lruNode{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.keys[key] = node
}

// remove unlinks key from the list. Caller holds the store's write lock.
func (l *lruIndex) remove(key string) {
	node, exists := l.keys[key]
	if !exists {
		return
	}

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	delete(l.keys, key)
}

// CheckAndAddRequest counts the window and records the request under a
// single lock, so two concurrent requests cannot both read count=limit-1
// and slip past the limit. Returns whether the request was admitted and
// the window count including it when it was.
func (s *InMemoryRateLimitStore) CheckAndAddRequest(ctx context.Context, key string, timestamp time.Time, cutoff time.Time, limit int) (allowed bool, count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if bucket, exists := s.requests[key]; exists {
		current = countAfter(bucket.timestamps, cutoff)
	}

	if current >= limit {
		return false, current, nil
	}

	s.addLocked(key, timestamp)
	return true, current + 1, nil
}
