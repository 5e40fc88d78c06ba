package livesync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/cache"
)

type item struct {
	ID        int64
	Purchased bool
}

func TestOptimistic_AppliesAndRollsBack(t *testing.T) {
	c := cache.New()
	key := cache.Key{"list-items", 10}
	before := []item{{ID: 1}, {ID: 2}}
	cache.SetData(c, key, before)

	rollback := Optimistic(c, key, func(old []item) []item {
		out := append([]item(nil), old...)
		out[0].Purchased = true
		return out
	})

	got, _ := cache.GetData[[]item](c, key)
	assert.True(t, got[0].Purchased)

	rollback()
	got, ok := cache.GetData[[]item](c, key)
	require.True(t, ok)
	assert.Equal(t, before, got)
}

func TestOptimistic_NoSnapshotNoWrite(t *testing.T) {
	c := cache.New()
	key := cache.Key{"list-items", 11}
	called := false

	rollback := Optimistic(c, key, func(old []item) []item {
		called = true
		return old
	})
	assert.False(t, called)
	assert.False(t, c.Peek(key).HasData)

	require.NotNil(t, rollback)
	rollback()
	_, ok := cache.GetData[[]item](c, key)
	assert.False(t, ok, "rollback restores absence")
}

func TestOptimistic_CancelsInFlightFetch(t *testing.T) {
	c := cache.New()
	key := cache.Key{"lists", 10}
	cache.SetData(c, key, item{ID: 10})

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(context.Background(), c, key, func(context.Context) (item, error) {
			<-release
			return item{ID: 10, Purchased: false}, nil
		}, cache.FetchOptions{})
		done <- err
	}()
	require.Eventually(t, func() bool { return c.Peek(key).FetchStatus == cache.FetchFetching }, time.Second, time.Millisecond)

	Optimistic(c, key, func(old item) item {
		old.Purchased = true
		return old
	})
	close(release)

	assert.ErrorIs(t, <-done, cache.ErrCancelled)
	got, _ := cache.GetData[item](c, key)
	assert.True(t, got.Purchased, "stale response must not clobber the optimistic value")
}
