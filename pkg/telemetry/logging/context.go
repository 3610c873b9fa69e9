package logging

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// RunIDKey is the context key for cycling run identifiers.
	RunIDKey contextKey = "run_id"

	// DataSourceKey is the context key for the data source being cycled.
	DataSourceKey contextKey = "data_source"
)

// WithRunID adds a run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run identifier from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithDataSource adds a data source designator to the context.
func WithDataSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, DataSourceKey, source)
}

// GetDataSource retrieves the data source designator from the context.
func GetDataSource(ctx context.Context) string {
	if source, ok := ctx.Value(DataSourceKey).(string); ok {
		return source
	}
	return ""
}

// contextAttrs extracts the logging fields stored in ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if runID := GetRunID(ctx); runID != "" {
		attrs = append(attrs, slog.String(string(RunIDKey), runID))
	}
	if source := GetDataSource(ctx); source != "" {
		attrs = append(attrs, slog.String(string(DataSourceKey), source))
	}
	return attrs
}
