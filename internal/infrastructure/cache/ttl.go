// Package cache provides a process-wide expiring key/value map.
package cache

import (
	"sync"
	"time"
)

// Clock abstracts time for tests.
type Clock func() time.Time

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is an expiring map. Entries become invisible once their age passes
// the TTL; concurrent writers racing to repopulate a key are resolved
// last-write-wins, which is acceptable because cached results are pure
// recomputations of the same underlying state. The mutex only guards map
// structure.
type TTL[V any] struct {
	ttl     time.Duration
	now     Clock
	mu      sync.RWMutex
	entries map[string]entry[V]
}

// New creates a cache with the given TTL. A nil clock uses time.Now.
func New[V any](ttl time.Duration, now Clock) *TTL[V] {
	if now == nil {
		now = time.Now
	}
	return &TTL[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the current timestamp.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops one key.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll drops every entry.
func (c *TTL[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}
