// Package resultcache is a TTL-keyed store of normalized query results.
//
// Expiry is lazy: an expired entry is detected and removed at read time.
// There is no background sweep; entry volume is bounded by the distinct query
// shapes actually issued during a session.
package resultcache

import (
	"sync"
	"time"
)

// entry pairs a cached value with its absolute expiry.
type entry struct {
	value   any
	expires time.Time
}

// Cache is an explicit instance owned by its caller. There is no package
// global; callers inject a Cache into the search service so lifetimes can be
// independent (e.g. one per worker) and tests stay isolated.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry

	hits   int64
	misses int64
}

// New creates an empty cache. now may be nil, in which case time.Now is
// used; tests inject a manual clock to simulate expiry.
func New(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or (nil, false) on miss. An entry
// past its expiry is treated as a miss and removed.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return e.value, true
}

// Put stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:   value,
		expires: c.now().Add(ttl),
	}
}

// Len returns the number of live entries, counting expired ones not yet
// collected by a read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
