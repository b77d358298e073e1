// Package logger builds the diagnostics logger. Diagnostics always go to a
// separate stream from filtered output so pipelines stay clean.
package logger

import (
	"io"
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when the configured level is empty or unknown.
const DefaultLevel = zerolog.WarnLevel

// New returns a logger writing to w at the given level. With asJSON unset
// the output is human-readable console text.
//
// The standard library logger is redirected to the returned logger.
func New(w io.Writer, level string, asJSON bool) zerolog.Logger {
	lvl := DefaultLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && l != zerolog.NoLevel {
		lvl = l
	}

	out := w
	if !asJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}

	log := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "iisfilter").
		Logger()

	stdlog.SetFlags(0)
	stdlog.SetOutput(log)
	return log
}
