package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/persist"
	"github.com/marcus/giftwell/internal/realtime"
)

func newTestApp(t *testing.T, persistOn bool) (*App, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("GIFTWELL_HOME", home)
	t.Setenv("GIFTWELL_LOGGING_LEVEL", "ERROR")

	a, err := New(Options{
		ConfigPath: filepath.Join(home, "conf"),
		Version:    "test",
		Offline:    true,
		Quiet:      true,
		Persist:    persistOn,
	})
	require.NoError(t, err)
	return a, home
}

func TestNew_Offline(t *testing.T) {
	a, _ := newTestApp(t, false)
	defer a.Close()

	_, ok := a.RT.(*realtime.Static)
	assert.True(t, ok, "offline uses the static provider")
	assert.Equal(t, realtime.Disconnected, a.RT.State())
	require.NotNil(t, a.Entity)
	assert.Same(t, a.Cache, a.Entity.Cache())
	assert.NotNil(t, a.Entity.Activity)
}

func TestStartClose_PersistsSnapshot(t *testing.T) {
	a, home := newTestApp(t, true)
	a.Start(context.Background())
	cache.SetData(a.Cache, cache.Key{"gifts", 1}, map[string]any{"id": 1})
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "close is idempotent")
	assert.FileExists(t, filepath.Join(home, persist.DBFile))

	b, _ := newTestAppInHome(t, home)
	b.Start(context.Background())
	defer b.Close()

	got, ok := cache.GetData[map[string]any](b.Cache, cache.Key{"gifts", 1})
	require.True(t, ok, "second run starts warm")
	assert.EqualValues(t, 1, got["id"])
}

func newTestAppInHome(t *testing.T, home string) (*App, string) {
	t.Helper()
	t.Setenv("GIFTWELL_HOME", home)
	a, err := New(Options{
		ConfigPath: filepath.Join(home, "conf"),
		Version:    "test",
		Offline:    true,
		Quiet:      true,
		Persist:    true,
	})
	require.NoError(t, err)
	return a, home
}
