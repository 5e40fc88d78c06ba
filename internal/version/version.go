// Package version checks GitHub for newer giftwell releases and compares
// semantic versions.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/jonboulle/clockwork"

	"github.com/marcus/giftwell/internal/config"
)

// DefaultReleaseURL is the GitHub endpoint for the newest release.
const DefaultReleaseURL = "https://api.github.com/repos/marcus/giftwell/releases/latest"

const (
	// cacheTTL is how long a release check is trusted.
	cacheTTL     = 6 * time.Hour
	cacheFile    = "version_cache.json"
	fetchTimeout = 5 * time.Second
)

// Result is the outcome of a release check.
type Result struct {
	Current   string `json:"current"`
	Latest    string `json:"latest,omitempty"`
	URL       string `json:"url,omitempty"`
	HasUpdate bool   `json:"has_update"`
	// Cached is set when the answer came from version_cache.json.
	Cached bool  `json:"cached"`
	Err    error `json:"-"`
}

// UpdateCommand is the install command for Latest, or "".
func (r Result) UpdateCommand() string {
	if !r.HasUpdate {
		return ""
	}
	return UpdateCommand(r.Latest)
}

// Checker finds the latest release for the running version.
type Checker struct {
	Current string
	// URL returns a GitHub release object.
	URL string
	// CachePath is where the last successful check is remembered. Empty
	// disables the cache.
	CachePath string
	HTTP      *http.Client
	Clock     clockwork.Clock
}

// NewChecker checks current against GitHub, caching in the config directory.
func NewChecker(current string) *Checker {
	c := &Checker{
		Current: current,
		URL:     DefaultReleaseURL,
		HTTP:    &http.Client{Timeout: fetchTimeout},
		Clock:   clockwork.NewRealClock(),
	}
	if dir, err := config.ConfigDir(); err == nil {
		c.CachePath = filepath.Join(dir, cacheFile)
	}
	return c
}

// Check answers from the cache when a recent check by this version exists,
// and otherwise asks GitHub. Only successful lookups are cached. Development
// builds are never checked.
func (c *Checker) Check(ctx context.Context) Result {
	if IsDevelopmentVersion(c.Current) {
		return Result{Current: c.Current}
	}
	if entry, err := loadCache(c.CachePath); err == nil && entry.validFor(c.Current, c.Clock.Now()) {
		return Result{
			Current:   c.Current,
			Latest:    entry.LatestVersion,
			URL:       entry.URL,
			HasUpdate: entry.HasUpdate,
			Cached:    true,
		}
	}

	res := c.Fetch(ctx)
	if res.Err == nil && c.CachePath != "" {
		_ = saveCache(c.CachePath, &cacheEntry{
			LatestVersion:  res.Latest,
			CurrentVersion: c.Current,
			URL:            res.URL,
			CheckedAt:      c.Clock.Now(),
			HasUpdate:      res.HasUpdate,
		})
	}
	return res
}

// release is the part of the GitHub release response we read.
type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Fetch asks GitHub, ignoring the cache.
func (c *Checker) Fetch(ctx context.Context) Result {
	res := Result{Current: c.Current}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("github api: %s", resp.Status)
		return res
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		res.Err = err
		return res
	}
	res.Latest = rel.TagName
	res.URL = rel.HTMLURL
	res.HasUpdate = isNewer(rel.TagName, c.Current)
	return res
}

// isNewer reports whether latest is a higher version than current.
// Unparsable versions never count as newer.
func isNewer(latest, current string) bool {
	l, err := goversion.NewVersion(latest)
	if err != nil {
		return false
	}
	cur, err := goversion.NewVersion(current)
	if err != nil {
		return false
	}
	return l.GreaterThan(cur)
}

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	switch v {
	case "", "unknown", "dev", "devel":
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// Semver with optional dot or hyphen separated prerelease parts. Anything
// else (shell metacharacters included) is refused.
var validVersionRegex = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*)?$`)

// UpdateCommand is the go install line for version, or "" when version does
// not look like a release tag.
func UpdateCommand(version string) string {
	if !validVersionRegex.MatchString(version) {
		return ""
	}
	return fmt.Sprintf(
		"go install -ldflags \"-X main.Version=%s\" github.com/marcus/giftwell@%s",
		version, version,
	)
}
