package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCapacity bounds the cache when no capacity is configured
	DefaultCapacity = 500

	// DefaultTTL is applied to entries stored without an explicit TTL
	DefaultTTL = 5 * time.Minute
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a capacity-bounded LRU with per-entry TTL. Inserting into
// a full cache evicts the least recently used entry; expired entries
// read as misses and are purged on access. Safe for concurrent use.
type Cache struct {
	lru        *lru.Cache[string, entry]
	defaultTTL time.Duration

	mu     sync.Mutex
	hits   uint64
	misses uint64

	now func() time.Time // Injectable for tests
}

// New creates a cache. Non-positive capacity or TTL fall back to the
// defaults.
func New(capacity int, defaultTTL time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	l, _ := lru.New[string, entry](capacity)
	return &Cache{
		lru:        l,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached value and whether it was present and fresh
func (c *Cache) Get(key string) (interface{}, bool) {
	e, ok := c.lru.Get(key)
	if ok && c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores a value with the default TTL
func (c *Cache) Put(key string, value interface{}) {
	c.PutTTL(key, value, c.defaultTTL)
}

// PutTTL stores a value with an explicit TTL
func (c *Cache) PutTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.lru.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
}

// Invalidate removes a single entry
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of resident entries, including any not yet
// purged expired ones
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns cumulative hit and miss counts
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
