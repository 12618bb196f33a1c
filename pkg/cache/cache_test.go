package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	c := New(10, time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestLRUEviction(t *testing.T) {
	c := New(3, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", 4)
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.PutTTL("k", "v", 10*time.Second)
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.Equal(t, 0, c.Len(), "expired entry is purged on access")
}

func TestDefaultTTLApplied(t *testing.T) {
	c := New(10, 5*time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("k", "v")
	now = now.Add(6 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestStats(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("nope")
	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(64, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k-%d", j%32)
				c.Put(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}
