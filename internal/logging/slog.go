package logging

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	opLogger.Store(logger)
}

// Op is the logger for things that happen around a run rather than inside
// one: a render hook failing, a vendor-state write failing. The outcome of a completed run itself goes through the separate
// run-completion Logger instead, so tailing Op's stream never doubles up
// with a run's own log line.
func Op() *slog.Logger {
	return opLogger.Load()
}

// Component namespaces Op to one subsystem (orchestrator, pool, vendor, ...)
// so its log lines can be filtered by "component" without each caller
// repeating the attribute by hand.
func Component(name string) *slog.Logger {
	return opLogger.Load().With("component", name)
}

// SetLevel raises or lowers the verbosity of every Op/Component logger at
// once, since they all read from the same shared LevelVar.
// Valid levels: slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString is SetLevel for config/env values, which arrive as
// strings rather than slog.Level constants.
// Valid values: "debug", "info", "warn", "error"
func SetLevelFromString(level string) {
	switch level {
	case "debug", "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "info", "INFO":
		logLevel.Set(slog.LevelInfo)
	case "warn", "WARN", "warning", "WARNING":
		logLevel.Set(slog.LevelWarn)
	case "error", "ERROR":
		logLevel.Set(slog.LevelError)
	}
}
