// Package obslog wires the process-wide structured logger.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. Components pull contextual sub-loggers
// from it (Log.With().Str("chunk", key).Logger()) rather than importing
// the zerolog package directly.
var Log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}

// SetLevel adjusts the global minimum log level (e.g. during tests, to
// silence tick-loop chatter).
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
