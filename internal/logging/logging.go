// Package logging configures the zerolog logger shared by the nestmap
// packages and the CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger for verbosity and writes human-readable
// output to stderr.
func Setup(verbosity int) {
	Configure(verbosity, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// Configure sets the global level from verbosity (0 warn, 1 info, 2 debug,
// 3 and above trace) and sends log output to w.
func Configure(verbosity int, w io.Writer) {
	zerolog.SetGlobalLevel(Level(verbosity))
	logger := zerolog.New(w).With().Timestamp().Logger()
	if verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger
	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// Level maps a -v count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// OperationStart logs the start of an operation and returns a func logging
// its completion.
func OperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")
	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
