package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir, "dev")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err, "default config should be written")

	c := cfg.Get()
	assert.Equal(t, "dev", c.Version)
	assert.Equal(t, defaultAPIURL, c.API.URL)
	assert.Equal(t, 30*time.Second, c.API.Timeout)
	assert.True(t, c.Realtime.Enabled)
	assert.Equal(t, 250*time.Millisecond, c.Realtime.Debounce)
	assert.Equal(t, 10*time.Second, c.Polling.Interval)
	assert.Equal(t, 5*time.Minute, c.Cache.GCTime)
	assert.Equal(t, "INFO", c.Logging.Level)
}

func TestNew_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[api]
  url = "https://gifts.example.com/api"
[polling]
  interval = "3s"
[realtime]
  enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := New(dir, "1.0.0")
	require.NoError(t, err)

	c := cfg.Get()
	assert.Equal(t, "https://gifts.example.com/api", c.API.URL)
	assert.Equal(t, 3*time.Second, c.Polling.Interval)
	assert.False(t, c.Realtime.Enabled)
	// untouched keys keep defaults
	assert.Equal(t, 5*time.Minute, c.Cache.StaleTime)
}

func TestNew_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIFTWELL_API_TOKEN", "secret")
	t.Setenv("GIFTWELL_LOGGING_LEVEL", "DEBUG")

	cfg, err := New(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Get().API.Token)
	assert.Equal(t, "DEBUG", cfg.Get().Logging.Level)
}

func TestConfigDir_HomeOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv("GIFTWELL_HOME", dir)

	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
