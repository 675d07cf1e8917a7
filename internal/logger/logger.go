// Package logger provides structured logging for the reblog worker.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog with a level chosen from the config string.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing text output to stderr at the given level.
// Unknown level strings fall back to info.
func New(level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	return &Logger{slog.New(slog.NewTextHandler(os.Stderr, opts))}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
