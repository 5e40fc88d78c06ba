package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Mock returns a logger that discards everything.
func Mock() Logger {
	l := &DefaultLogger{
		level: zerolog.Disabled,
	}
	l.log = zerolog.New(io.Discard).Level(zerolog.Disabled)
	return l
}
