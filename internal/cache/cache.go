// Package cache provides an in-memory keyed store with per-entry TTL.
// Every derived computation in assignwatch is memoized behind it to bound
// GitHub API usage. Entries expire by TTL only; there is no invalidation
// path. Derived state does not survive a process restart.
package cache

import (
	"sync"
	"time"

	"github.com/assignwatch/assignwatch/internal/log"
)

// TTL policy per data kind. TTLs are fixed per use site, not per call.
const (
	// ActivityTTL covers per-user activity summaries and reliability scores.
	ActivityTTL = 10 * time.Minute

	// AnalysisTTL covers per-issue completion probability estimates.
	AnalysisTTL = 5 * time.Minute

	// TimelineTTL covers timeline lookups used for assignment checks.
	TimelineTTL = 2 * time.Minute

	// BulkTTL covers bulk recomputations (assigned-time and most-active lists).
	BulkTTL = 30 * time.Second
)

type entry struct {
	value      any
	computedAt time.Time
	ttl        time.Duration
}

// Cache is a thread-safe in-memory store. Concurrent misses on the same key
// are allowed to race; the last writer wins. Values are idempotent functions
// of their key, so duplicate upstream work is an accepted inefficiency, not
// a correctness bug.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates a cache with an injectable clock (for testing).
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// lookup returns the stored value if it exists and has not expired.
func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.computedAt) >= e.ttl {
		return nil, false
	}
	return e.value, true
}

// store writes a value with the current timestamp. Expired entries for other
// keys are left in place; they are overwritten on their next recompute.
func (c *Cache) store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, computedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Stats returns the total and still-valid entry counts.
func (c *Cache) Stats() (total, valid int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	for _, e := range c.entries {
		total++
		if now.Sub(e.computedAt) < e.ttl {
			valid++
		}
	}
	return total, valid
}

// GetOrCompute returns the cached value for key if still valid, otherwise
// invokes compute, stores the result with the given TTL, and returns it.
// The key must be a composite of all computation inputs. If compute fails,
// nothing is stored and the error propagates to the caller.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		log.Debug("cache hit", "key", key)
		return v.(T), nil
	}

	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	c.store(key, v, ttl)
	return v, nil
}
