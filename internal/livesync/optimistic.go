package livesync

import "github.com/marcus/giftwell/internal/cache"

// Optimistic applies updater to the data cached under key before the server
// confirms a mutation. In-flight fetches for key are cancelled first so a
// stale response cannot overwrite the optimistic value. The returned
// rollback restores exactly what was cached before, including nothing.
//
// If key holds no data, nothing is written and rollback is a no-op.
func Optimistic[T any](c *cache.Cache, key cache.Key, updater func(T) T) (rollback func()) {
	c.Cancel(cache.Exact(key))

	snap := c.Snapshot(key)
	if !snap.Exists() {
		return func() {}
	}

	if old, ok := cache.GetData[T](c, key); ok {
		cache.SetData(c, key, updater(old))
	}
	return func() { c.Restore(snap) }
}
