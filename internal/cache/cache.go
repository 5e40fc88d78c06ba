// Package cache is the process-wide query cache: fetched data addressed by
// canonical keys, with staleness, invalidation, cancellation and GC.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/marcus/giftwell/internal/logger"
)

// TopicUpdated is published on the event bus with the key hash whenever an
// entry changes (data, error, invalidation, removal).
const TopicUpdated = "cache:updated"

const (
	DefaultStaleTime = 0
	DefaultGCTime    = 5 * time.Minute
)

var (
	// ErrDisabled is returned by Fetch for a query whose Enabled gate is false.
	ErrDisabled = errors.New("query disabled")
	// ErrCancelled is returned to callers of a fetch cancelled by Cancel,
	// Remove or an optimistic update.
	ErrCancelled = errors.New("query cancelled")
)

// Status is the data status of an entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchStatus reports whether a fetch is in flight.
type FetchStatus string

const (
	FetchIdle     FetchStatus = "idle"
	FetchFetching FetchStatus = "fetching"
)

// Fetcher loads the data for one key.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	key   Key
	hash  string
	parts []string

	data    any
	raw     json.RawMessage // hydrated, decoded on first typed read
	hasData bool
	err     error

	status      Status
	fetchStatus FetchStatus
	updatedAt   time.Time
	invalidated bool
	observers   int
	// dirty is set when the entry is invalidated while a fetch is running;
	// that fetch's result predates the invalidation.
	dirty bool
	// done is closed when the running fetch finishes.
	done chan struct{}

	fetcher   Fetcher
	staleTime time.Duration

	// gen changes whenever an in-flight fetch must not write its result.
	gen    uint64
	cancel context.CancelFunc
}

// Cache is safe for concurrent use. Construct one per application (or per
// test) and pass it explicitly.
type Cache struct {
	mu        sync.Mutex
	store     *gocache.Cache
	group     singleflight.Group
	bus       EventBus.Bus
	clock     clockwork.Clock
	log       logger.Logger
	staleTime time.Duration
	gcTime    time.Duration

	background sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(c *Cache) { c.log = l } }

// WithStaleTime sets the stale time used when a fetch does not set one.
func WithStaleTime(d time.Duration) Option { return func(c *Cache) { c.staleTime = d } }

// WithGCTime sets how long an unobserved entry is kept.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.gcTime = d
		}
	}
}

// WithBus publishes change notifications on bus instead of a private one.
func WithBus(bus EventBus.Bus) Option { return func(c *Cache) { c.bus = bus } }

// WithClock sets the clock used for staleness.
func WithClock(clock clockwork.Clock) Option { return func(c *Cache) { c.clock = clock } }

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		staleTime: DefaultStaleTime,
		gcTime:    DefaultGCTime,
		clock:     clockwork.NewRealClock(),
		log:       logger.Mock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = EventBus.New()
	}
	c.log = logger.WithModule(c.log, "cache")

	c.store = gocache.New(c.gcTime, cleanupInterval(c.gcTime))
	c.store.OnEvicted(func(hash string, _ any) {
		c.log.Trace().Str("key", hash).Msg("entry collected")
	})
	return c
}

func cleanupInterval(gc time.Duration) time.Duration {
	iv := gc / 2
	if iv < 10*time.Millisecond {
		iv = 10 * time.Millisecond
	}
	return iv
}

// Bus returns the event bus change notifications are published on.
func (c *Cache) Bus() EventBus.Bus { return c.bus }

// Clock returns the cache clock.
func (c *Cache) Clock() clockwork.Clock { return c.clock }

// Wait blocks until background refetches started by Invalidate finish,
// including fetches that were in flight when it ran.
func (c *Cache) Wait() { c.background.Wait() }

// --- entry bookkeeping; callers hold c.mu ---

func (c *Cache) lookup(hash string) (*entry, bool) {
	v, ok := c.store.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Cache) getOrCreate(key Key) *entry {
	parts := key.parts()
	hash := joinParts(parts)
	if e, ok := c.lookup(hash); ok {
		return e
	}
	e := &entry{
		key:         append(Key(nil), key...),
		hash:        hash,
		parts:       parts,
		status:      StatusPending,
		fetchStatus: FetchIdle,
	}
	c.put(e)
	return e
}

// put (re)stores e, resetting its GC timer. Observed entries never expire.
func (c *Cache) put(e *entry) {
	exp := c.gcTime
	if e.observers > 0 {
		exp = gocache.NoExpiration
	}
	c.store.Set(e.hash, e, exp)
}

func (c *Cache) matching(f Filter) []*entry {
	cf := f.compile()
	var out []*entry
	for _, item := range c.store.Items() {
		e := item.Object.(*entry)
		if cf.match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Cache) isStale(e *entry) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return c.clock.Since(e.updatedAt) >= e.staleTime
}

// cancelLocked stops e's in-flight fetch and makes sure it never writes.
func (c *Cache) cancelLocked(e *entry) bool {
	if e.fetchStatus != FetchFetching {
		return false
	}
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.fetchStatus = FetchIdle
	e.dirty = false
	c.group.Forget(e.hash)
	return true
}

func (c *Cache) setDataLocked(e *entry, v any) {
	e.data = v
	e.raw = nil
	e.hasData = true
	e.err = nil
	e.status = StatusSuccess
	e.updatedAt = c.clock.Now()
	e.invalidated = false
	c.put(e)
}

func (c *Cache) notify(hashes ...string) {
	for _, h := range hashes {
		c.bus.Publish(TopicUpdated, h)
	}
}

// --- fetching ---

// maxRefetchRounds bounds how often one fetch restarts because the entry
// kept being invalidated while it ran.
const maxRefetchRounds = 5

// run executes e's fetcher, collapsing concurrent calls for the same key.
// A result that was invalidated while in flight is thrown away and the
// fetcher runs again, so callers and the cache see post-invalidation data.
func (c *Cache) run(ctx context.Context, e *entry) (any, error) {
	ch := c.group.DoChan(e.hash, func() (any, error) {
		c.mu.Lock()
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		done := make(chan struct{})
		defer close(done)
		e.done = done
		e.gen++
		gen := e.gen
		e.cancel = cancel
		e.fetchStatus = FetchFetching
		c.mu.Unlock()
		c.notify(e.hash)

		start := c.clock.Now()
		for round := 1; ; round++ {
			c.mu.Lock()
			e.dirty = false
			fetch := e.fetcher
			c.mu.Unlock()

			v, err := fetch(fctx)

			c.mu.Lock()
			if e.gen != gen {
				c.mu.Unlock()
				c.log.Debug().Str("key", e.hash).Msg("discarding cancelled fetch result")
				return nil, ErrCancelled
			}
			again := e.dirty && err == nil && round < maxRefetchRounds
			if again {
				c.mu.Unlock()
				c.log.Debug().Str("key", e.hash).Int("round", round).Msg("invalidated mid-fetch, refetching")
				continue
			}
			stale := e.dirty
			e.dirty = false
			e.cancel = nil
			e.fetchStatus = FetchIdle
			if err != nil {
				e.err = err
				e.status = StatusError
				c.put(e)
			} else {
				c.setDataLocked(e, v)
				e.invalidated = stale
			}
			c.mu.Unlock()
			c.notify(e.hash)

			c.log.Trace().Str("key", e.hash).Dur("elapsed", c.clock.Since(start)).Int("rounds", round).Err(err).Msg("fetched")
			return v, err
		}
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) refetchInBackground(e *entry) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		if _, err := c.run(context.Background(), e); err != nil && !errors.Is(err, ErrCancelled) {
			c.log.Debug().Err(err).Str("key", e.hash).Msg("background refetch failed")
		}
	}()
}

// FetchOptions tunes a single Fetch.
type FetchOptions struct {
	// StaleTime overrides the cache default. Data younger than this is
	// returned without a network call.
	StaleTime time.Duration
	// Enabled gates the query; nil means enabled.
	Enabled *bool
}

// Bool returns a pointer to b, for FetchOptions.Enabled and similar gates.
func Bool(b bool) *bool { return &b }

// Fetch returns the cached data for key if it is fresh, and otherwise runs
// fn and caches its result. fn becomes the entry's fetcher for background
// refetches.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error), opts FetchOptions) (T, error) {
	var zero T
	if opts.Enabled != nil && !*opts.Enabled {
		return zero, ErrDisabled
	}

	staleTime := opts.StaleTime
	if staleTime == 0 {
		staleTime = c.staleTime
	}

	c.mu.Lock()
	e := c.getOrCreate(key)
	e.fetcher = func(ctx context.Context) (any, error) { return fn(ctx) }
	e.staleTime = staleTime
	if !c.isStale(e) {
		if v, ok := typed[T](e); ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	v, err := c.run(ctx, e)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T, not %T", e.hash, v, zero)
	}
	return out, nil
}

// typed reads e's data as T, decoding hydrated JSON on first access.
// Callers hold c.mu.
func typed[T any](e *entry) (T, bool) {
	var zero T
	if !e.hasData {
		return zero, false
	}
	if e.raw != nil {
		var v T
		if err := json.Unmarshal(e.raw, &v); err != nil {
			return zero, false
		}
		e.data = v
		e.raw = nil
	}
	v, ok := e.data.(T)
	return v, ok
}

// --- direct reads and writes ---

// GetData returns the data cached for key, if any, without fetching.
func GetData[T any](c *Cache, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key.Hash())
	if !ok {
		var zero T
		return zero, false
	}
	return typed[T](e)
}

// SetData writes v as fresh data for key.
func SetData[T any](c *Cache, key Key, v T) {
	c.mu.Lock()
	e := c.getOrCreate(key)
	c.setDataLocked(e, v)
	c.mu.Unlock()
	c.notify(e.hash)
}

// Update replaces the data for key with fn(old, ok), where ok reports
// whether old was cached.
func Update[T any](c *Cache, key Key, fn func(old T, ok bool) T) {
	c.mu.Lock()
	e := c.getOrCreate(key)
	old, ok := typed[T](e)
	c.setDataLocked(e, fn(old, ok))
	c.mu.Unlock()
	c.notify(e.hash)
}

// State is a read-only view of an entry.
type State struct {
	Key         Key
	Exists      bool
	HasData     bool
	Status      Status
	FetchStatus FetchStatus
	Err         error
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
	Observers   int
}

// Peek returns the state of key without fetching.
func (c *Cache) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key.Hash())
	if !ok {
		return State{Key: key, Status: StatusPending, FetchStatus: FetchIdle, Stale: true}
	}
	return c.stateLocked(e)
}

func (c *Cache) stateLocked(e *entry) State {
	return State{
		Key:         e.key,
		Exists:      true,
		HasData:     e.hasData,
		Status:      e.status,
		FetchStatus: e.fetchStatus,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Stale:       c.isStale(e),
		Observers:   e.observers,
	}
}

// Keys returns the keys of every entry matching f.
func (c *Cache) Keys(f Filter) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Key
	for _, e := range c.matching(f) {
		out = append(out, e.key)
	}
	return out
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// --- bulk operations ---

// Invalidate marks matching entries stale. Entries with observers refetch
// in the background with their last fetcher; the rest refetch on next
// access. A fetch already in flight for a matching entry runs again before
// it stores anything. It returns the number of matched entries.
//
// Predicate runs with the cache locked and must not call back into it.
func (c *Cache) Invalidate(f Filter) int {
	c.mu.Lock()
	matched := c.matching(f)
	var (
		refetch []*entry
		running []chan struct{}
	)
	hashes := make([]string, 0, len(matched))
	for _, e := range matched {
		e.invalidated = true
		hashes = append(hashes, e.hash)
		switch {
		case e.fetchStatus == FetchFetching:
			// the running fetch starts over instead
			e.dirty = true
			running = append(running, e.done)
		case e.observers > 0 && e.fetcher != nil:
			refetch = append(refetch, e)
		}
	}
	c.mu.Unlock()

	if len(matched) > 0 {
		c.log.Debug().Str("filter", f.Key.Hash()).Bool("exact", f.Exact).Int("matched", len(matched)).Msg("invalidate")
	}
	c.notify(hashes...)
	for _, e := range refetch {
		c.refetchInBackground(e)
	}
	for _, done := range running {
		c.background.Add(1)
		go func() {
			defer c.background.Done()
			<-done
		}()
	}
	return len(matched)
}

// Cancel stops in-flight fetches for matching entries. A cancelled fetch
// never writes its result. It returns the number of fetches cancelled.
func (c *Cache) Cancel(f Filter) int {
	c.mu.Lock()
	n := 0
	var hashes []string
	for _, e := range c.matching(f) {
		if c.cancelLocked(e) {
			n++
			hashes = append(hashes, e.hash)
		}
	}
	c.mu.Unlock()
	c.notify(hashes...)
	return n
}

// Remove evicts matching entries, cancelling their fetches.
func (c *Cache) Remove(f Filter) int {
	c.mu.Lock()
	matched := c.matching(f)
	hashes := make([]string, 0, len(matched))
	for _, e := range matched {
		c.cancelLocked(e)
		c.store.Delete(e.hash)
		hashes = append(hashes, e.hash)
	}
	c.mu.Unlock()
	c.notify(hashes...)
	return len(matched)
}

// Clear removes every entry.
func (c *Cache) Clear() int { return c.Remove(All()) }

// --- observers ---

// Observer keeps an entry active: exempt from GC and refetched in the
// background when invalidated.
type Observer struct {
	c    *Cache
	key  Key
	once sync.Once
}

// Observe marks key as in use until the returned observer is closed.
func (c *Cache) Observe(key Key) *Observer {
	c.mu.Lock()
	e := c.getOrCreate(key)
	e.observers++
	c.put(e)
	c.mu.Unlock()
	return &Observer{c: c, key: e.key}
}

// Key returns the observed key.
func (o *Observer) Key() Key { return o.key }

// Close releases the observer. The entry becomes collectable once its last
// observer closes. Close is idempotent.
func (o *Observer) Close() {
	o.once.Do(func() {
		c := o.c
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.lookup(o.key.Hash())
		if !ok {
			return
		}
		if e.observers > 0 {
			e.observers--
		}
		c.put(e)
	})
}

// --- snapshots ---

// Snapshot is the data of one key at a point in time, including absence.
type Snapshot struct {
	key       Key
	exists    bool
	data      any
	raw       json.RawMessage
	status    Status
	err       error
	updatedAt time.Time
}

// Exists reports whether the key held data when the snapshot was taken.
func (s Snapshot) Exists() bool { return s.exists }

// Key returns the snapshotted key.
func (s Snapshot) Key() Key { return s.key }

// Snapshot captures the data for key.
func (c *Cache) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{key: key}
	e, ok := c.lookup(key.Hash())
	if !ok || !e.hasData {
		return s
	}
	s.exists = true
	s.data = e.data
	s.raw = e.raw
	s.status = e.status
	s.err = e.err
	s.updatedAt = e.updatedAt
	return s
}

// Restore puts back exactly what s captured. Restoring an absent snapshot
// clears the data; the entry itself is dropped unless it is observed.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	hash := s.key.Hash()
	e, ok := c.lookup(hash)
	switch {
	case !s.exists && !ok:
		c.mu.Unlock()
		return
	case !s.exists:
		e.data = nil
		e.raw = nil
		e.hasData = false
		e.err = nil
		e.status = StatusPending
		e.updatedAt = time.Time{}
		if e.observers == 0 {
			c.store.Delete(hash)
		} else {
			c.put(e)
		}
	default:
		if !ok {
			e = c.getOrCreate(s.key)
		}
		e.data = s.data
		e.raw = s.raw
		e.hasData = true
		e.err = s.err
		e.status = s.status
		e.updatedAt = s.updatedAt
		c.put(e)
	}
	c.mu.Unlock()
	c.notify(hash)
}
