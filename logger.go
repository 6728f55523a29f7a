package imagevault

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with imagevault-specific context.
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

// WithHash adds an imageHash field to the logger (useful for tagging operations).
func (l *Logger) WithHash(hash string) *Logger {
	return &Logger{
		Logger: l.Logger.With("imageHash", hash),
	}
}

// WithTopK adds a topK (result count) field to the logger.
func (l *Logger) WithTopK(topK int) *Logger {
	return &Logger{
		Logger: l.Logger.With("topK", topK),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, id, hash string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"imageHash", hash,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"id", id,
			"imageHash", hash,
		)
	}
}

// LogSearch logs a record search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"results", resultsFound,
		)
	}
}

// LogQuery logs a similarity query.
func (l *Logger) LogQuery(ctx context.Context, topK, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "similarity query failed",
			"topK", topK,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "similarity query completed",
			"topK", topK,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id string, removed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"id", id,
			"removed", removed,
		)
	}
}
