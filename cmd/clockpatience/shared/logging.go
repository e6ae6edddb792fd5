package shared

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output on stderr
func SetupLogger(level zerolog.Level) zerolog.Logger {
	return NewConsoleLogger(os.Stderr, level)
}

// NewConsoleLogger writes human-readable log lines to w. Colour is only used
// when w is a file.
func NewConsoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	_, isFile := w.(*os.File)
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isFile}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// SetupStructuredLogger configures zerolog for structured (JSON) output
func SetupStructuredLogger(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// LevelFor returns debug when debug is set, otherwise info
func LevelFor(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
