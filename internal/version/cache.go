package version

import (
	"encoding/json"
	"os"
	"time"
)

// cacheEntry is the last successful release check.
type cacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	URL            string    `json:"url,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

// validFor reports whether the entry was recorded by current and is still
// fresh at now. An upgrade invalidates it.
func (e *cacheEntry) validFor(current string, now time.Time) bool {
	return e != nil && e.CurrentVersion == current && now.Sub(e.CheckedAt) < cacheTTL
}

func loadCache(path string) (*cacheEntry, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// saveCache writes through a temp file so a concurrent reader never sees a
// partial entry.
func saveCache(path string, entry *cacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
