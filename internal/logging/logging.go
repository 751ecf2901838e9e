// Package logging builds the zerolog root logger and the per-service child
// loggers the rest of the system hangs context on.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. Development gets the pretty console writer,
// anything else emits JSON lines.
func New(env, level string) zerolog.Logger {
	lvl := parseLevel(env, level)

	var logger zerolog.Logger
	if env == "development" {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(lvl).With().
		Timestamp().
		Str("env", env).
		Str("app", "eda-orders").
		Logger()
}

func parseLevel(env, level string) zerolog.Level {
	if level == "" {
		if env == "development" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

// ForService tags a child logger with the owning service name
// (orders, inventory, payment, notification).
func ForService(logger zerolog.Logger, service string) zerolog.Logger {
	return logger.With().Str("service", service).Logger()
}

// ForComponent tags a child logger with an infra component name
// (rabbitmq, redis, database, idempotency).
func ForComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
