// Package logging provides structured logging configuration using log/slog.
//
// Scan identifiers are propagated through context so every log entry emitted
// during an inference run can be correlated, from the command layer down to
// the engine.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const ctxKeyScanID contextKey = "scan_id"

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" format in production for machine parsing, "text" in
// development for human readability.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithScanID stores a scan identifier in the context for log correlation.
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, ctxKeyScanID, scanID)
}

// ScanIDFromContext returns the scan identifier, or "" if none is set.
func ScanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyScanID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger enriched with the context's scan identifier,
// when present.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("scan started", "dataset", datasetID)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if scanID := ScanIDFromContext(ctx); scanID != "" {
		logger = logger.With("scan_id", scanID)
	}
	return logger
}

// WithFields returns a logger with additional structured fields, useful for
// operation-specific loggers that carry consistent context through a
// multi-step process.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
