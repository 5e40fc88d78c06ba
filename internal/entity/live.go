package entity

import (
	"context"
	"sync"
	"time"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/livesync"
	"github.com/marcus/giftwell/internal/realtime"
)

// Live is a watched query: the cache entry is kept active, refreshed on
// realtime events for its topic, and polled while the socket is down.
type Live[T any] struct {
	c       *cache.Cache
	key     cache.Key
	topic   string
	fetch   func(context.Context) (T, error)
	options cache.FetchOptions

	obs     *cache.Observer
	binding *livesync.Binding
	poller  *livesync.Poller
	once    sync.Once
}

type bindSpec struct {
	topic    string
	events   []realtime.Kind
	debounce time.Duration
	onEvent  func(realtime.Event, *cache.Cache)
}

func watch[T any](cl *Client, k cache.Key, fetch func(context.Context) (T, error), fo cache.FetchOptions, spec bindSpec) *Live[T] {
	l := &Live[T]{c: cl.cache, key: k, topic: spec.topic, fetch: fetch, options: fo}
	if fo.Enabled == nil || *fo.Enabled {
		l.obs = cl.cache.Observe(k)
	}
	l.binding = livesync.Bind(cl.rt, cl.cache, livesync.BindOptions{
		Topic:    spec.topic,
		Key:      k,
		Events:   spec.events,
		OnEvent:  spec.onEvent,
		Debounce: spec.debounce,
		Enabled:  fo.Enabled,
		Clock:    cl.opts.Clock,
		Logger:   cl.log,
	})
	l.poller = livesync.NewPoller(cl.rt, cl.cache, livesync.PollOptions{
		Key:      k,
		Interval: cl.opts.PollInterval,
		Enabled:  fo.Enabled,
		Clock:    cl.opts.Clock,
		Logger:   cl.log,
	})
	return l
}

// Key returns the watched cache key.
func (l *Live[T]) Key() cache.Key { return l.key }

// Topic returns the realtime topic the query is bound to.
func (l *Live[T]) Topic() string { return l.topic }

// Load returns cached data when fresh and fetches otherwise.
func (l *Live[T]) Load(ctx context.Context) (T, error) {
	return cache.Fetch(ctx, l.c, l.key, l.fetch, l.options)
}

// Data returns whatever is cached without fetching.
func (l *Live[T]) Data() (T, bool) { return cache.GetData[T](l.c, l.key) }

// State returns the cache state of the watched key.
func (l *Live[T]) State() cache.State { return l.c.Peek(l.key) }

// Polling reports whether the fallback poller is running.
func (l *Live[T]) Polling() bool { return l.poller.Active() }

// Close stops the subscription and poller and releases the cache entry.
func (l *Live[T]) Close() {
	l.once.Do(func() {
		l.binding.Close()
		l.poller.Close()
		if l.obs != nil {
			l.obs.Close()
		}
	})
}

// detailHandler handles events on an entity topic: a delete drops the
// cached entity, anything else refetches it.
func detailHandler(k cache.Key) func(realtime.Event, *cache.Cache) {
	return func(ev realtime.Event, c *cache.Cache) {
		if ev.Kind == realtime.Deleted {
			c.Remove(cache.Exact(k))
			return
		}
		c.Invalidate(cache.Exact(k))
	}
}

var (
	collectionEvents = []realtime.Kind{realtime.Added, realtime.Updated, realtime.Deleted}
	detailEvents     = []realtime.Kind{realtime.Updated, realtime.Deleted}
)
