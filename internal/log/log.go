// Package log configures the process-wide slog logger for the eyehelper
// commands. Packages take a *slog.Logger; commands hand them Component
// loggers from here.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	once   sync.Once
)

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Unknown strings map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w. JSON output is used when jsonOutput is
// set, text otherwise.
func New(w io.Writer, lvl slog.Leveler, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs the global logger once. LOG_LEVEL overrides name, and
// GO_ENV=production switches to JSON output.
func Init(name string) {
	once.Do(func() {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			name = env
		}
		level.Set(ParseLevel(name))
		logger = New(os.Stdout, level, os.Getenv("GO_ENV") == "production")
		slog.SetDefault(logger)
	})
}

// SetLevel changes the global level after Init.
func SetLevel(name string) {
	level.Set(ParseLevel(name))
}

// L returns the global logger, initializing it at info level if needed.
func L() *slog.Logger {
	Init("info")
	return logger
}

// Component returns the global logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}
