// Package app wires configuration, logging, the API client, the query
// cache, the realtime provider and the entity services into one value the
// commands share.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/config"
	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/persist"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/scheduler"
	"github.com/marcus/giftwell/internal/theme"
)

// snapshotMaxAge bounds how old a persisted cache record may be before it
// is pruned instead of hydrated.
const snapshotMaxAge = 7 * 24 * time.Hour

// Options selects how the app is assembled.
type Options struct {
	ConfigPath string
	Version    string
	// Offline skips the WebSocket connection; views fall back to polling.
	Offline bool
	// Quiet keeps logs off stderr (the TUI owns the terminal).
	Quiet bool
	// Persist enables the on-disk cache snapshot. Short-lived commands
	// leave it off.
	Persist bool
}

// App is the assembled client.
type App struct {
	Config *config.AppConfig
	Log    logger.Logger
	API    *apiclient.Client
	Cache  *cache.Cache
	Bus    EventBus.Bus
	RT     realtime.Provider
	Entity *entity.Client
	Theme  *theme.Store

	ws        *realtime.Client
	store     *persist.Store
	scheduler scheduler.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New assembles the app. Nothing connects until Start.
func New(opts Options) (*App, error) {
	cfg, err := config.New(opts.ConfigPath, opts.Version)
	if err != nil {
		return nil, err
	}
	c := cfg.Get()

	log := logger.New(c.Logging, logger.Options{Version: opts.Version, Quiet: opts.Quiet})
	cfg.DynamicReload(log)

	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Bus:    EventBus.New(),
		Theme:  theme.NewStore(dir),
	}

	a.API = apiclient.New(c.API.URL, c.API.Token,
		apiclient.WithTimeout(c.API.Timeout),
		apiclient.WithLogger(log))

	a.Cache = cache.New(
		cache.WithLogger(log),
		cache.WithBus(a.Bus),
		cache.WithStaleTime(c.Cache.StaleTime),
		cache.WithGCTime(c.Cache.GCTime))

	if opts.Offline || !c.Realtime.Enabled {
		a.RT = realtime.NewStatic(realtime.Disconnected)
	} else {
		a.ws = realtime.NewClient(c.Realtime.URL,
			realtime.WithToken(c.API.Token),
			realtime.WithClientLogger(log))
		a.RT = a.ws
	}

	a.Entity = entity.New(a.API, a.Cache, a.RT, log, entity.Options{
		Debounce:     c.Realtime.Debounce,
		PollInterval: c.Polling.Interval,
	})
	if err := entity.ValidateGraph(entity.Graph); err != nil {
		return nil, fmt.Errorf("invalidation graph: %w", err)
	}

	if opts.Persist && c.Cache.Persist {
		store, err := persist.Open(filepath.Join(dir, persist.DBFile), log)
		if err != nil {
			log.Warn().Err(err).Msg("cache snapshot disabled")
		} else {
			a.store = store
		}
	}
	return a, nil
}

// Start hydrates the cache from the last snapshot, schedules snapshot
// saves and connects the realtime client.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.store != nil {
		a.hydrate(ctx)
		a.scheduler = scheduler.NewService(a.Log)
		job := &scheduler.SnapshotJob{
			Log:    logger.WithModule(a.Log, "snapshot"),
			Cache:  a.Cache,
			Store:  a.store,
			MaxAge: snapshotMaxAge,
		}
		if _, err := a.scheduler.AddJob(job, a.Config.Get().Cache.PersistInterval, scheduler.SnapshotJobID); err != nil {
			a.Log.Error().Err(err).Msg("could not schedule cache snapshots")
		}
		a.scheduler.Start()
	}

	if a.ws != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.ws.Run(ctx); err != nil {
				a.Log.Debug().Err(err).Msg("realtime client stopped")
			}
		}()
	}
}

func (a *App) hydrate(ctx context.Context) {
	if _, err := a.store.Prune(ctx, time.Now().Add(-snapshotMaxAge)); err != nil {
		a.Log.Debug().Err(err).Msg("prune snapshot")
	}
	records, err := a.store.Load(ctx)
	if err != nil {
		a.Log.Warn().Err(err).Msg("could not load cache snapshot")
		return
	}
	n, err := a.Cache.Hydrate(records)
	if err != nil {
		a.Log.Debug().Err(err).Msg("some snapshot records were skipped")
	}
	a.Log.Debug().Int("records", n).Msg("cache hydrated")
}

// Close stops background work, writes a final snapshot and releases files.
func (a *App) Close() error {
	var err error
	a.once.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()

		if a.scheduler != nil {
			a.scheduler.Stop()
		}
		if a.store != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if serr := a.store.Save(ctx, a.Cache.Dehydrate()); serr != nil {
				a.Log.Error().Err(serr).Msg("could not save cache snapshot")
			}
			cancel()
			err = a.store.Close()
		}
		if c, ok := a.Log.(io.Closer); ok {
			c.Close()
		}
	})
	return err
}

// ClearSnapshot deletes the persisted cache, if persistence is enabled.
func (a *App) ClearSnapshot(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Clear(ctx)
}
