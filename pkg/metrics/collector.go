package metrics

import (
	"sync"
	"time"
)

const collectInterval = 15 * time.Second

// CacheStats is the view of a cache the collector samples
type CacheStats interface {
	Stats() (hits, misses uint64)
	Len() int
}

// Collector periodically samples a cache and publishes its counters.
// Hit and miss totals from the cache are cumulative, so the collector
// tracks the last observed values and adds only the delta.
type Collector struct {
	source CacheStats

	lastHits   uint64
	lastMisses uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCollector creates a collector over a cache
func NewCollector(source CacheStats) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins sampling in the background
func (c *Collector) Start() {
	ticker := time.NewTicker(collectInterval)
	go func() {
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends sampling. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Collect samples the cache once
func (c *Collector) Collect() {
	hits, misses := c.source.Stats()
	if hits > c.lastHits {
		CacheHits.Add(float64(hits - c.lastHits))
	}
	if misses > c.lastMisses {
		CacheMisses.Add(float64(misses - c.lastMisses))
	}
	c.lastHits = hits
	c.lastMisses = misses

	CacheEntries.Set(float64(c.source.Len()))
}
