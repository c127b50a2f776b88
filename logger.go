package dataview

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with dataview-specific context.
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

// WithID adds an identifier field to the logger (useful for tagging operations).
func (l *Logger) WithID(id any) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// WithProperty adds a property identifier field to the logger.
func (l *Logger) WithProperty(propertyID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("property", propertyID),
	}
}

// LogAdd logs an insertion.
func (l *Logger) LogAdd(id any, err error) {
	if err != nil {
		l.Error("add failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"id", id,
		)
	}
}

// LogRemove logs a removal. err is non-nil only when a journal append
// prevented the removal.
func (l *Logger) LogRemove(id any, removed bool, err error) {
	if err != nil {
		l.Error("remove failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("remove completed",
			"id", id,
			"removed", removed,
		)
	}
}

// LogUpdate logs an update.
func (l *Logger) LogUpdate(id any, err error) {
	if err != nil {
		l.Error("update failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("update completed",
			"id", id,
		)
	}
}

// LogClear logs a removal of all items. err is non-nil only when a
// journal append prevented the clear.
func (l *Logger) LogClear(count int, err error) {
	if err != nil {
		l.Error("clear failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("clear completed",
			"count", count,
		)
	}
}

// LogFilter logs a refilter pass.
func (l *Logger) LogFilter(filters, visible int, changed bool) {
	l.Debug("refilter completed",
		"filters", filters,
		"visible", visible,
		"changed", changed,
	)
}

// LogSort logs a sort.
func (l *Logger) LogSort(propertyIDs []string, err error) {
	if err != nil {
		l.Error("sort failed",
			"properties", propertyIDs,
			"error", err,
		)
	} else {
		l.Debug("sort completed",
			"properties", propertyIDs,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, dest string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"dest", dest,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"dest", dest,
			"count", count,
		)
	}
}

// LogRecovery logs a journal recovery.
func (l *Logger) LogRecovery(ctx context.Context, entriesReplayed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "journal recovery failed",
			"entries_replayed", entriesReplayed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "journal recovery completed",
			"entries_replayed", entriesReplayed,
		)
	}
}
