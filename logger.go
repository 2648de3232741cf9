package treesearch

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with treesearch-specific context.
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

// LogBuild logs a tree construction.
func (l *Logger) LogBuild(ctx context.Context, kind string, points, dims, nodes int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tree build failed",
			"tree", kind,
			"points", points,
			"dimensions", dims,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree built",
			"tree", kind,
			"points", points,
			"dimensions", dims,
			"nodes", nodes,
			"duration", duration,
		)
	}
}

// LogSearch logs a search operation with its traversal statistics.
func (l *Logger) LogSearch(ctx context.Context, mode string, queries, k int, baseCases, scores int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"mode", mode,
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"mode", mode,
			"queries", queries,
			"k", k,
			"base_cases", baseCases,
			"scores", scores,
			"duration", duration,
		)
	}
}

// LogWarn logs a warning, e.g. when option precedence overrides a setting.
func (l *Logger) LogWarn(ctx context.Context, msg string, args ...any) {
	l.WarnContext(ctx, msg, args...)
}
