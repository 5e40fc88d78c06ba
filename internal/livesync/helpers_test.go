package livesync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/cache"
)

// invalidations counts change notifications for one cache key. Seed the key
// with data first: Invalidate only notifies for existing entries.
type invalidations struct {
	n int32
}

func countInvalidations(t *testing.T, c *cache.Cache, key cache.Key) *invalidations {
	t.Helper()
	cache.SetData(c, key, "seed")
	inv := &invalidations{}
	hash := key.Hash()
	require.NoError(t, c.Bus().Subscribe(cache.TopicUpdated, func(h string) {
		if h == hash {
			atomic.AddInt32(&inv.n, 1)
		}
	}))
	return inv
}

func (i *invalidations) count() int { return int(atomic.LoadInt32(&i.n)) }

// countingClock wraps a fake clock and tracks how many tickers are live.
type countingClock struct {
	clockwork.FakeClock

	mu      sync.Mutex
	active  int
	max     int
	created int
}

func newCountingClock() *countingClock {
	return &countingClock{FakeClock: clockwork.NewFakeClock()}
}

func (c *countingClock) NewTicker(d time.Duration) clockwork.Ticker {
	t := c.FakeClock.NewTicker(d)
	c.mu.Lock()
	c.active++
	c.created++
	if c.active > c.max {
		c.max = c.active
	}
	c.mu.Unlock()
	return &countingTicker{Ticker: t, c: c}
}

func (c *countingClock) stats() (active, max, created int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.max, c.created
}

type countingTicker struct {
	clockwork.Ticker
	c    *countingClock
	once sync.Once
}

func (t *countingTicker) Stop() {
	t.Ticker.Stop()
	t.once.Do(func() {
		t.c.mu.Lock()
		t.c.active--
		t.c.mu.Unlock()
	})
}
