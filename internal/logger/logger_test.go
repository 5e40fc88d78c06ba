package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/giftwell/internal/config"
	"github.com/rs/zerolog"
)

func TestMockLogger(t *testing.T) {
	l := Mock()
	if l == nil {
		t.Fatal("Mock() returned nil")
	}
	// Should not panic when calling methods
	l.Log().Msg("x")
	l.Error().Msg("x")
	l.Err(nil).Msg("x")
	l.Warn().Msg("x")
	l.Info().Msg("x")
	l.Debug().Msg("x")
	l.Trace().Msg("x")
	_ = l.With().Str("module", "test").Logger()
}

func TestNew_LogFile(t *testing.T) {
	dir := t.TempDir()
	l := New(config.Logging{Level: "INFO", Path: dir, MaxFileSize: 1, MaxBackupCount: 1}, Options{Quiet: true})

	l.Info().Str("module", "test").Msg("hello")

	dl := l.(*DefaultLogger)
	if err := dl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "giftwell.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain output")
	}
}

func TestSetLogLevel(t *testing.T) {
	l := New(config.Logging{Level: "DEBUG"}, Options{Quiet: true}).(*DefaultLogger)

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"INFO", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"TRACE", zerolog.TraceLevel},
		{"INVALID", zerolog.Disabled},
	}
	for _, tc := range tests {
		l.SetLogLevel(tc.input)
		if got := l.Level(); got != tc.want {
			t.Errorf("SetLogLevel(%q): got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestWithModule(t *testing.T) {
	dir := t.TempDir()
	base := New(config.Logging{Level: "INFO", Path: dir, MaxFileSize: 1, MaxBackupCount: 1}, Options{Quiet: true})
	l := WithModule(base, "cache")

	l.Debug().Msg("hidden")
	l.Info().Msg("shown")

	// level changes on the child reach the parent
	l.SetLogLevel("DEBUG")
	if got := base.(*DefaultLogger).Level(); got != zerolog.DebugLevel {
		t.Errorf("parent level = %v, want debug", got)
	}
	l.Debug().Msg("now shown")

	if err := base.(*DefaultLogger).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "giftwell.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, `"module":"cache"`) {
		t.Errorf("module field missing: %s", out)
	}
	if !strings.Contains(out, "now shown") {
		t.Error("debug line missing after level change")
	}
}
