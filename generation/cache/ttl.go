package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the one-hour memo window.
const DefaultTTL = time.Hour

// entry 缓存条目，可见性由 now - storedAt <= ttl 决定
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache is a time-keyed memo store with lazy expiry. Expired entries are
// removed by the Get that observes them; there is no background sweep and no
// size bound. A single mutex serializes Get and Set.
type TTLCache[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock
	items map[string]entry[V]
}

// NewTTLCache creates a cache. ttl <= 0 falls back to DefaultTTL; a nil clock
// uses the system clock.
func NewTTLCache[V any](ttl time.Duration, clock Clock) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLCache[V]{
		ttl:   ttl,
		clock: clock,
		items: make(map[string]entry[V]),
	}
}

// Set stores value under key, overwriting and restarting its TTL window.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, storedAt: c.clock.Now()}
}

// SetWithTTL stores value so that it expires after remaining rather than a
// full ttl. remaining is capped at ttl; remaining <= 0 stores nothing.
func (c *TTLCache[V]) SetWithTTL(key string, value V, remaining time.Duration) {
	if remaining <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if remaining > c.ttl {
		remaining = c.ttl
	}
	c.items[key] = entry[V]{value: value, storedAt: c.clock.Now().Add(remaining - c.ttl)}
}

// Get returns the value if it was set within the last ttl. An entry older
// than ttl is evicted and reported absent.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.clock.Now().Sub(e.storedAt) > c.ttl {
		delete(c.items, key)
		return zero, false
	}
	return e.value, true
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet read.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TTL returns the configured time-to-live.
func (c *TTLCache[V]) TTL() time.Duration { return c.ttl }
