// Package livesync keeps cached queries in step with the server: realtime
// bindings, a polling fallback for when the socket is down, and optimistic
// writes with rollback.
package livesync

import (
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/realtime"
)

// BindOptions configures a Binding.
type BindOptions struct {
	Topic string
	// Key is invalidated (as a prefix) on matching events when OnEvent is nil.
	Key cache.Key
	// Events filters by kind; empty means all kinds.
	Events []realtime.Kind
	// OnEvent, if set, replaces the default invalidation.
	OnEvent func(realtime.Event, *cache.Cache)
	// Debounce coalesces bursts of events into one trailing invalidation.
	// Zero invalidates on every event.
	Debounce time.Duration
	// Enabled gates the subscription; nil means enabled.
	Enabled *bool
	Clock   clockwork.Clock
	Logger  logger.Logger
}

func (o BindOptions) enabled() bool { return o.Enabled == nil || *o.Enabled }

func (o BindOptions) kinds() []realtime.Kind {
	if len(o.Events) == 0 {
		return realtime.AllKinds()
	}
	return o.Events
}

// Binding subscribes one cache key to one realtime topic.
type Binding struct {
	p     realtime.Provider
	c     *cache.Cache
	clock clockwork.Clock
	log   logger.Logger

	mu     sync.Mutex
	opts   BindOptions
	sub    *realtime.Subscription
	timer  clockwork.Timer
	fire   uint64 // identifies the live debounce timer
	gen    uint64
	closed bool
}

// Bind subscribes to opts.Topic if enabled.
func Bind(p realtime.Provider, c *cache.Cache, opts BindOptions) *Binding {
	b := &Binding{p: p, c: c, clock: opts.Clock, log: opts.Logger}
	if b.clock == nil {
		b.clock = clockwork.NewRealClock()
	}
	if b.log == nil {
		b.log = logger.Mock()
	}
	b.log = logger.WithModule(b.log, "livesync")

	b.mu.Lock()
	b.opts = opts
	b.subscribeLocked()
	b.mu.Unlock()
	return b
}

// Update applies new options. If the topic, event set, handler code or
// enabled gate changed, the old subscription is torn down (dropping any
// pending debounce) and a new one is made. Handlers are compared by code
// pointer, so two closures of the same function literal keep the
// subscription; events still reach the handler passed last.
func (b *Binding) Update(opts BindOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	resub := needsResubscribe(b.opts, opts)
	b.opts = opts
	if resub {
		b.teardownLocked()
		b.subscribeLocked()
	}
}

// Active reports whether the binding currently holds a subscription.
func (b *Binding) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil
}

// Close unsubscribes and drops any pending debounce. It is idempotent.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.teardownLocked()
}

func needsResubscribe(old, next BindOptions) bool {
	if old.Topic != next.Topic || old.enabled() != next.enabled() {
		return true
	}
	if !slices.Equal(old.kinds(), next.kinds()) {
		return true
	}
	return funcID(old.OnEvent) != funcID(next.OnEvent)
}

func funcID(fn func(realtime.Event, *cache.Cache)) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

func (b *Binding) subscribeLocked() {
	if !b.opts.enabled() || b.opts.Topic == "" {
		return
	}
	b.gen++
	gen := b.gen
	b.sub = b.p.Subscribe(b.opts.Topic, func(ev realtime.Event) { b.handle(gen, ev) })
	b.log.Trace().Str("topic", b.opts.Topic).Msg("bound")
}

func (b *Binding) teardownLocked() {
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
}

func (b *Binding) handle(gen uint64, ev realtime.Event) {
	b.mu.Lock()
	if b.closed || gen != b.gen || !slices.Contains(b.opts.kinds(), ev.Kind) {
		b.mu.Unlock()
		return
	}
	opts := b.opts

	if opts.OnEvent != nil {
		b.mu.Unlock()
		opts.OnEvent(ev, b.c)
		return
	}

	if opts.Debounce <= 0 {
		b.mu.Unlock()
		b.c.Invalidate(cache.Prefix(opts.Key))
		return
	}

	// trailing edge: every event restarts the window
	if b.timer != nil {
		b.timer.Stop()
	}
	b.fire++
	fire, key := b.fire, opts.Key
	b.timer = b.clock.AfterFunc(opts.Debounce, func() { b.flush(gen, fire, key) })
	b.mu.Unlock()
}

func (b *Binding) flush(gen, fire uint64, key cache.Key) {
	b.mu.Lock()
	if b.closed || gen != b.gen || fire != b.fire {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.mu.Unlock()

	n := b.c.Invalidate(cache.Prefix(key))
	b.log.Trace().Str("key", key.Hash()).Int("matched", n).Msg("debounced invalidate")
}
