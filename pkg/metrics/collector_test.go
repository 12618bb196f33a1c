package metrics

import (
	"testing"
	"time"
)

type fakeCache struct {
	hits   uint64
	misses uint64
	len    int
}

func (f *fakeCache) Stats() (uint64, uint64) { return f.hits, f.misses }
func (f *fakeCache) Len() int                { return f.len }

func TestCollectorDeltas(t *testing.T) {
	src := &fakeCache{hits: 10, misses: 4, len: 7}
	c := NewCollector(src)

	c.Collect()
	if c.lastHits != 10 || c.lastMisses != 4 {
		t.Errorf("expected last observed (10, 4), got (%d, %d)", c.lastHits, c.lastMisses)
	}

	src.hits = 25
	src.misses = 4
	c.Collect()
	if c.lastHits != 25 {
		t.Errorf("expected last hits 25, got %d", c.lastHits)
	}
	if c.lastMisses != 4 {
		t.Errorf("expected last misses 4, got %d", c.lastMisses)
	}
}

func TestCollectorStopIdempotent(t *testing.T) {
	c := NewCollector(&fakeCache{})
	c.Start()

	c.Stop()
	c.Stop()

	// Give the goroutine a moment to observe the stop
	time.Sleep(10 * time.Millisecond)
}
