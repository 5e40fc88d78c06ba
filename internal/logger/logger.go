package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/marcus/giftwell/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger interface
type Logger interface {
	Log() *zerolog.Event
	Fatal() *zerolog.Event
	Err(err error) *zerolog.Event
	Error() *zerolog.Event
	Warn() *zerolog.Event
	Info() *zerolog.Event
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	With() zerolog.Context
	SetLogLevel(level string)
}

// Options controls where log output goes.
type Options struct {
	Version string
	// Quiet drops the stderr writer. The TUI sets this so log lines
	// don't paint over the alt screen.
	Quiet bool
}

// DefaultLogger default logging controller
type DefaultLogger struct {
	mu            sync.RWMutex
	log           zerolog.Logger
	level         zerolog.Level
	writers       []io.Writer
	lumberjackLog *lumberjack.Logger
}

func New(cfg config.Logging, opts Options) Logger {
	l := &DefaultLogger{
		writers: make([]io.Writer, 0),
		level:   zerolog.InfoLevel,
	}

	switch {
	case opts.Quiet:
	case opts.Version == "" || opts.Version == "dev":
		// pretty console output for dev builds only
		l.writers = append(l.writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	default:
		l.writers = append(l.writers, os.Stderr)
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		}

		l.lumberjackLog = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, "giftwell.log"),
			MaxSize:    cfg.MaxFileSize,
			MaxBackups: cfg.MaxBackupCount,
		}
		l.writers = append(l.writers, l.lumberjackLog)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	l.log = zerolog.New(io.MultiWriter(l.writers...)).With().Stack().Logger()
	l.SetLogLevel(cfg.Level)

	return l
}

// SetLogLevel accepts ERROR, WARN, INFO, DEBUG or TRACE. Anything else
// disables logging.
func (l *DefaultLogger) SetLogLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch strings.ToUpper(level) {
	case "INFO":
		l.level = zerolog.InfoLevel
	case "DEBUG":
		l.level = zerolog.DebugLevel
	case "ERROR":
		l.level = zerolog.ErrorLevel
	case "WARN":
		l.level = zerolog.WarnLevel
	case "TRACE":
		l.level = zerolog.TraceLevel
	default:
		l.level = zerolog.Disabled
	}
	l.log = l.log.Level(l.level)
}

// Level returns the active level.
func (l *DefaultLogger) Level() zerolog.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Close flushes the log file, if any.
func (l *DefaultLogger) Close() error {
	if l.lumberjackLog == nil {
		return nil
	}
	return l.lumberjackLog.Close()
}

func (l *DefaultLogger) current() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lg := l.log
	return &lg
}

// Log log something without a level.
func (l *DefaultLogger) Log() *zerolog.Event {
	return l.current().Log().Timestamp()
}

// Fatal log something at fatal level. This will exit!
func (l *DefaultLogger) Fatal() *zerolog.Event {
	return l.current().Fatal().Timestamp()
}

// Error log something at Error level
func (l *DefaultLogger) Error() *zerolog.Event {
	return l.current().Error().Timestamp()
}

// Err log something at Err level
func (l *DefaultLogger) Err(err error) *zerolog.Event {
	return l.current().Err(err).Timestamp()
}

// Warn log something at warning level.
func (l *DefaultLogger) Warn() *zerolog.Event {
	return l.current().Warn().Timestamp()
}

// Info log something at info level.
func (l *DefaultLogger) Info() *zerolog.Event {
	return l.current().Info().Timestamp()
}

// Debug log something at debug level.
func (l *DefaultLogger) Debug() *zerolog.Event {
	return l.current().Debug().Timestamp()
}

// Trace log something at trace level.
func (l *DefaultLogger) Trace() *zerolog.Event {
	return l.current().Trace().Timestamp()
}

// With log with context
func (l *DefaultLogger) With() zerolog.Context {
	return l.current().With().Timestamp()
}
