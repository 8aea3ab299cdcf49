package cache

import (
	"sync"
	"time"
)

// Cache is an in-process key/value store with per-entry expiry. Expiry is
// checked lazily on read; there is no background eviction goroutine, so an
// entry is at most its TTL old or gone once explicitly cleared. The cache is
// never persisted; every instance is scoped to one client session.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value  interface{}
	expiry time.Time
}

// New creates an empty cache backed by the wall clock.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates a cache that reads time from now. Tests inject a fake
// clock here to exercise expiry deterministically.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Set stores value under key with expiry now + ttl, overwriting any existing
// entry unconditionally.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:  value,
		expiry: c.now().Add(ttl),
	}
}

// Get returns the value stored under key while it is still fresh. An expired
// entry is treated as absent and purged on the way out.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiry) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Clear removes the entries for the given keys, or every entry when called
// with no keys.
func (c *Cache) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[string]entry)
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len reports the number of physically stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
