// Package logging provides the process-wide structured logger. Console runs
// use the compact handler; --log-json switches to slog's JSON handler.
package logging

import (
	"log/slog"
	"os"
)

// New builds a logger with the given level, writing to stderr so that the
// JSON analysis result on stdout stays machine-readable.
func New(level slog.Level, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(NewCompactHandler(os.Stderr, opts))
}

// Setup installs a logger as the slog default and returns it.
func Setup(verbose, jsonOutput bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := New(level, jsonOutput)
	slog.SetDefault(logger)
	return logger
}
