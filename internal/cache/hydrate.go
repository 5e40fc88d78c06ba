package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted form of one entry.
type Record struct {
	Hash      string
	Data      json.RawMessage
	UpdatedAt time.Time
}

// Dehydrate returns every successfully fetched entry in persistable form.
// Entries whose data cannot be marshalled are skipped.
func (c *Cache) Dehydrate() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Record
	for _, item := range c.store.Items() {
		e := item.Object.(*entry)
		if !e.hasData || e.status != StatusSuccess {
			continue
		}
		data := e.raw
		if data == nil {
			b, err := json.Marshal(e.data)
			if err != nil {
				c.log.Debug().Err(err).Str("key", e.hash).Msg("skipping unserializable entry")
				continue
			}
			data = b
		}
		out = append(out, Record{Hash: e.hash, Data: data, UpdatedAt: e.updatedAt})
	}
	return out
}

// Hydrate loads records into the cache. Data is kept as JSON until first
// read. Entries that already hold newer data are left alone. It returns the
// number of entries loaded.
func (c *Cache) Hydrate(records []Record) (int, error) {
	c.mu.Lock()
	loaded := 0
	var hashes []string
	var firstErr error
	for _, r := range records {
		key, err := ParseKey(r.Hash)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e := c.getOrCreate(key)
		if e.hasData && !e.updatedAt.Before(r.UpdatedAt) {
			continue
		}
		e.data = nil
		e.raw = append(json.RawMessage(nil), r.Data...)
		e.hasData = true
		e.err = nil
		e.status = StatusSuccess
		e.updatedAt = r.UpdatedAt
		e.invalidated = false
		c.put(e)
		loaded++
		hashes = append(hashes, e.hash)
	}
	c.mu.Unlock()

	c.notify(hashes...)
	if firstErr != nil {
		return loaded, fmt.Errorf("hydrate: %w", firstErr)
	}
	return loaded, nil
}
