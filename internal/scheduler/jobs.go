package scheduler

import (
	"context"
	"time"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
	"github.com/marcus/giftwell/internal/persist"
)

// SnapshotJobID identifies the cache snapshot job.
const SnapshotJobID = "cache-snapshot"

// SnapshotJob writes the cache to the snapshot store and drops records
// older than MaxAge.
type SnapshotJob struct {
	Log    logger.Logger
	Cache  *cache.Cache
	Store  *persist.Store
	MaxAge time.Duration
}

func (j *SnapshotJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records := j.Cache.Dehydrate()
	if err := j.Store.Save(ctx, records); err != nil {
		j.Log.Error().Err(err).Msg("could not save cache snapshot")
		return
	}

	if j.MaxAge > 0 {
		n, err := j.Store.Prune(ctx, time.Now().Add(-j.MaxAge))
		if err != nil {
			j.Log.Error().Err(err).Msg("could not prune cache snapshot")
			return
		}
		if n > 0 {
			j.Log.Debug().Int64("pruned", n).Msg("pruned old snapshot records")
		}
	}
	j.Log.Trace().Int("records", len(records)).Msg("cache snapshot written")
}
