package logger

import "github.com/rs/zerolog"

// moduleLogger tags every event with a module field and defers level
// changes to its parent, so reloads reach every component.
type moduleLogger struct {
	parent Logger
	module string
}

// WithModule returns a logger that adds module=name to every line.
func WithModule(l Logger, name string) Logger {
	if l == nil {
		l = Mock()
	}
	return &moduleLogger{parent: l, module: name}
}

func (m *moduleLogger) Log() *zerolog.Event   { return m.parent.Log().Str("module", m.module) }
func (m *moduleLogger) Fatal() *zerolog.Event { return m.parent.Fatal().Str("module", m.module) }
func (m *moduleLogger) Error() *zerolog.Event { return m.parent.Error().Str("module", m.module) }
func (m *moduleLogger) Warn() *zerolog.Event  { return m.parent.Warn().Str("module", m.module) }
func (m *moduleLogger) Info() *zerolog.Event  { return m.parent.Info().Str("module", m.module) }
func (m *moduleLogger) Debug() *zerolog.Event { return m.parent.Debug().Str("module", m.module) }
func (m *moduleLogger) Trace() *zerolog.Event { return m.parent.Trace().Str("module", m.module) }

func (m *moduleLogger) Err(err error) *zerolog.Event {
	return m.parent.Err(err).Str("module", m.module)
}

func (m *moduleLogger) With() zerolog.Context {
	return m.parent.With().Str("module", m.module)
}

func (m *moduleLogger) SetLogLevel(level string) {
	m.parent.SetLogLevel(level)
}
