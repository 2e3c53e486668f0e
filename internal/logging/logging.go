package logging

import (
	"log/slog"
	"os"
)

// Logger is a thin wrapper around slog with a JSON handler.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger writing JSON to stdout.
func NewLogger() *Logger {
	opts := slog.HandlerOptions{Level: slog.LevelDebug}
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, &opts)),
	}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}
