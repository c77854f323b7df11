// Package corelog centralizes structured logging. It wraps zerolog the way
// the rest of the daemon expects to log: short, leveled, with the failing
// subsystem as a field rather than a formatted prefix, so that recoverable
// conditions (dial failures, drop-and-warn decrypt failures, flush retries)
// produce greppable, machine-parseable lines instead of panicking.
package corelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a component-scoped handle; construct one per subsystem with New
// so every line is tagged with where it came from.
type Logger struct {
	zl zerolog.Logger
}

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(newConsoleWriter(os.Stderr)).With().Timestamp().Logger()
}

func newConsoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
}

// SetLevel adjusts the process-wide minimum level. Valid values mirror
// zerolog's: "debug", "info", "warn", "error".
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// New returns a Logger scoped to component, e.g. "overlay", "vault",
// "pairing".
func New(component string) *Logger {
	return &Logger{zl: base.With().Str("component", component).Logger()}
}

func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Err returns a logger event pre-attached with err, so callers can add
// fields before calling Msg: log.Err(err).Str("peer_id", id).Msg("dial failed").
func (l *Logger) Err(err error) *zerolog.Event { return l.zl.Error().Err(err) }
