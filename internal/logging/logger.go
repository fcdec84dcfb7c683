// Package logging configures the zerolog global logger and emits the
// consolidated cold-start record for each Lambda.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar names the environment variable holding the log level.
const LevelEnvVar = "PHOTOS_LOG_LEVEL"

// Init initializes the global logger from the environment.
// PHOTOS_LOG_LEVEL controls the level: debug, info, warn, error (default: info).
// Inside Lambda the output is JSON lines for CloudWatch; elsewhere it is the
// human-readable console format.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv(LevelEnvVar)))

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		out = os.Stdout
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
