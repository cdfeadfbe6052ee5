package knnlive

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with knnlive-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithK adds a k (neighborhood size) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithPopulation adds a population size field to the logger.
func (l *Logger) WithPopulation(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("population", n),
	}
}

// LogInsert logs an insert mutation.
func (l *Logger) LogInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"count", count,
		)
	}
}

// LogDelete logs a delete mutation.
func (l *Logger) LogDelete(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"count", count,
		)
	}
}

// LogSearch logs an out-of-sample neighbor query.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}
