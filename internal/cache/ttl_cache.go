// Package cache provides the fingerprint-keyed result cache of the pipeline.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Outcome reports how GetOrCompute produced its value.
type Outcome string

// Cache outcomes, also sent to clients in the X-Cache header.
const (
	OutcomeHit    Outcome = "HIT"
	OutcomeMiss   Outcome = "MISS"
	OutcomeShared Outcome = "SHARED"
)

// Entry represents a cached value
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Shared  int64   `json:"shared"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// TTLCache provides time-based caching with automatic expiration and cleanup.
//
// The cache uses a background goroutine for periodic cleanup of expired entries.
// IMPORTANT: Always call Close() when done to stop the cleanup goroutine and
// prevent resource leaks.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	items   map[string]Entry[V]
	ttl     time.Duration
	maxSize int

	// Metrics
	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64

	// Cleanup
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	once            sync.Once

	// at most one computation per key
	group singleflight.Group
}

// DefaultTTL is the default cache TTL when an invalid value is provided.
const DefaultTTL = time.Hour

// DefaultMaxSize is the default maximum cache size when an invalid value is provided.
const DefaultMaxSize = 1000

// MinCleanupInterval is the minimum interval between cleanup runs.
const MinCleanupInterval = time.Millisecond

// NewTTLCache creates a new TTL cache.
//
// Parameters:
//   - ttl: Time-to-live for cache entries. If <= 0, defaults to 1 hour.
//   - maxSize: Maximum number of entries. If <= 0, defaults to 1000.
//
// IMPORTANT: Call Close() when done to stop the background cleanup goroutine.
func NewTTLCache[V any](ttl time.Duration, maxSize int) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	cache := &TTLCache[V]{
		items:           make(map[string]Entry[V]),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: max(ttl/2, MinCleanupInterval),
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// Get retrieves a live value from cache.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return entry.Value, true
}

// peek is Get without touching the counters.
func (c *TTLCache[V]) peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.items[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Put stores a value in cache, evicting one entry when full.
func (c *TTLCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	c.items[key] = Entry[V]{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// GetOrCompute returns the cached value for key or computes it.
//
// Concurrent callers for the same missing key share one computation: the
// caller that ran it gets OutcomeMiss, the others OutcomeShared. The
// computation runs on a context detached from ctx, so a caller that gives
// up receives ctx.Err() while the computation still completes and fills
// the cache. Errors are returned to every waiting caller and never cached.
func (c *TTLCache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, Outcome, error) {
	var zero V

	if val, ok := c.Get(key); ok {
		return val, OutcomeHit, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, "", err
	}

	detached := context.WithoutCancel(ctx)
	var ran, found bool
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// another flight may have filled the key after our Get
		if val, ok := c.peek(key); ok {
			found = true
			return val, nil
		}

		ran = true
		val, err := compute(detached)
		if err != nil {
			return nil, err
		}
		c.Put(key, val)
		return val, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, "", res.Err
		}
		val, _ := res.Val.(V)
		switch {
		case found:
			return val, OutcomeHit, nil
		case ran:
			return val, OutcomeMiss, nil
		default:
			c.shared.Add(1)
			return val, OutcomeShared, nil
		}
	case <-ctx.Done():
		return zero, "", ctx.Err()
	}
}

// Delete removes a key from the cache
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all entries from the cache
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Entry[V])
	c.hits.Store(0)
	c.misses.Store(0)
	c.shared.Store(0)
}

// Stats returns cache statistics.
//
// The returned values represent a consistent snapshot - all values
// are captured under the same lock to ensure consistency.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Shared: c.shared.Load(),
		Size:   len(c.items),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Size returns current cache size
func (c *TTLCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// TTL returns the configured time-to-live.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Close stops the cleanup goroutine
func (c *TTLCache[V]) Close() {
	c.once.Do(func() {
		close(c.stopCleanup)
	})
}

// cleanup periodically removes expired entries
func (c *TTLCache[V]) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.items {
				if now.After(entry.ExpiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// evictOldest removes an entry to make room for a new one.
// It first tries to remove an expired entry, falling back to the entry that expires first.
// This is O(n), which is fine at the configured sizes.
func (c *TTLCache[V]) evictOldest() {
	now := time.Now()

	for key, entry := range c.items {
		if now.After(entry.ExpiresAt) {
			delete(c.items, key)
			return
		}
	}

	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.items {
		if oldestTime.IsZero() || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
