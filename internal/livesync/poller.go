package livesync

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/realtime"
)

// DefaultPollInterval is used when PollOptions.Interval is zero.
const DefaultPollInterval = 10 * time.Second

// PollOptions configures a Poller.
type PollOptions struct {
	// Key is invalidated (as a prefix) on every tick.
	Key      cache.Key
	Interval time.Duration
	// Enabled gates polling; nil means enabled.
	Enabled *bool
	Clock   clockwork.Clock
	Logger  logger.Logger
}

func (o PollOptions) enabled() bool { return o.Enabled == nil || *o.Enabled }

func (o PollOptions) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultPollInterval
	}
	return o.Interval
}

// Poller invalidates a key on a fixed interval while the realtime provider
// is not connected. At most one ticker runs at a time.
type Poller struct {
	p     realtime.Provider
	c     *cache.Cache
	clock clockwork.Clock
	log   logger.Logger

	mu       sync.Mutex
	opts     PollOptions
	ticker   clockwork.Ticker
	stop     chan struct{}
	stateSub *realtime.Subscription
	closed   bool
}

// NewPoller starts watching the provider's connection state.
func NewPoller(p realtime.Provider, c *cache.Cache, opts PollOptions) *Poller {
	pl := &Poller{p: p, c: c, clock: opts.Clock, log: opts.Logger, opts: opts}
	if pl.clock == nil {
		pl.clock = clockwork.NewRealClock()
	}
	if pl.log == nil {
		pl.log = logger.Mock()
	}
	pl.log = logger.WithModule(pl.log, "livesync")

	pl.mu.Lock()
	pl.stateSub = p.OnStateChange(func(realtime.ConnState) { pl.evaluate() })
	pl.mu.Unlock()
	pl.evaluate()
	return pl
}

// Update applies new options. A running ticker is restarted if the key or
// interval changed.
func (pl *Poller) Update(opts PollOptions) {
	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return
	}
	restart := opts.interval() != pl.opts.interval() || !opts.Key.Equal(pl.opts.Key)
	pl.opts = opts
	if restart {
		pl.stopLocked()
	}
	pl.mu.Unlock()
	pl.evaluate()
}

// Active reports whether a ticker is running.
func (pl *Poller) Active() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.ticker != nil
}

// Close stops polling and the state watch. It is idempotent.
func (pl *Poller) Close() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.closed {
		return
	}
	pl.closed = true
	pl.stopLocked()
	pl.stateSub.Unsubscribe()
}

// evaluate starts or stops the ticker: polling is active iff enabled and
// the provider is not connected.
func (pl *Poller) evaluate() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.closed {
		return
	}

	state := pl.p.State()
	want := pl.opts.enabled() && state != realtime.Connected
	switch {
	case want && pl.ticker == nil:
		pl.startLocked()
	case !want && pl.ticker != nil:
		pl.stopLocked()
	}
}

func (pl *Poller) startLocked() {
	t := pl.clock.NewTicker(pl.opts.interval())
	stop := make(chan struct{})
	pl.ticker, pl.stop = t, stop
	key := pl.opts.Key

	pl.log.Debug().Str("key", key.Hash()).Dur("interval", pl.opts.interval()).Msg("polling started")
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-t.Chan():
				pl.c.Invalidate(cache.Prefix(key))
			}
		}
	}()
}

func (pl *Poller) stopLocked() {
	if pl.ticker == nil {
		return
	}
	pl.ticker.Stop()
	close(pl.stop)
	pl.ticker, pl.stop = nil, nil
	pl.log.Debug().Str("key", pl.opts.Key.Hash()).Msg("polling stopped")
}
