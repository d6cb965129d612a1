package util

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide logger. Development gets human-readable
// text at debug level; everything else gets JSON for log shipping. The level
// can be forced through LOG_LEVEL regardless of environment.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", "assesshub")
	slog.SetDefault(logger)
	return logger
}
