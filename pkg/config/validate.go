package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "cycling.chunk_size").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateCycling(&cfg.Cycling)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("unsupported driver %q (must be sqlite or sqlite3)", cfg.Driver),
		})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "database.path",
			Message: "database path is required",
		})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "database.max_open_conns",
			Message: "max open connections must be non-negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "database.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}

	return errs
}

func validateCycling(cfg *CyclingConfig) []FieldError {
	var errs []FieldError

	if cfg.ChunkSize < 1 {
		errs = append(errs, FieldError{
			Field:   "cycling.chunk_size",
			Message: "chunk size must be at least 1",
		})
	}
	if cfg.SleepTime < 0 {
		errs = append(errs, FieldError{
			Field:   "cycling.sleep_time",
			Message: "sleep time must be non-negative",
		})
	}
	if cfg.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "cycling.days",
			Message: "days must be non-negative",
		})
	}
	if cfg.MaxRuntime < time.Minute {
		errs = append(errs, FieldError{
			Field:   "cycling.max_runtime",
			Message: "max runtime must be at least 1m",
		})
	}
	if cfg.UnknownRowCount != "stop" && cfg.UnknownRowCount != "continue" {
		errs = append(errs, FieldError{
			Field:   "cycling.unknown_rowcount",
			Message: fmt.Sprintf("unsupported policy %q (must be stop or continue)", cfg.UnknownRowCount),
		})
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "cycling.schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	for i, source := range cfg.DataSources {
		if source != "jobs" && source != "perf" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("cycling.data_sources[%d]", i),
				Message: fmt.Sprintf("unknown data source %q (must be jobs or perf)", source),
			})
		}
	}

	return errs
}

func validateNotify(cfg *NotifyConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case NotifyBackendLog:
	case NotifyBackendHTTP:
		if cfg.RootURL == "" {
			errs = append(errs, FieldError{
				Field:   "notify.root_url",
				Message: "root URL is required for the http backend",
			})
		} else if u, err := url.Parse(cfg.RootURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "notify.root_url",
				Message: fmt.Sprintf("invalid URL %q", cfg.RootURL),
			})
		}
		if cfg.AccessToken == "" {
			errs = append(errs, FieldError{
				Field:   "notify.access_token",
				Message: "access token is required for the http backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "notify.backend",
			Message: fmt.Sprintf("unsupported backend %q (must be log or http)", cfg.Backend),
		})
	}

	if !strings.Contains(cfg.Address, "@") {
		errs = append(errs, FieldError{
			Field:   "notify.address",
			Message: fmt.Sprintf("invalid address %q", cfg.Address),
		})
	}
	if cfg.MaxRowsPerNotification < 1 {
		errs = append(errs, FieldError{
			Field:   "notify.max_rows_per_notification",
			Message: "must be at least 1",
		})
	}
	if cfg.MaxNotifications < 1 {
		errs = append(errs, FieldError{
			Field:   "notify.max_notifications",
			Message: "must be at least 1",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "notify.max_retries",
			Message: "max retries must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q", cfg.Logging.Level),
		})
	}
	if !slices.Contains([]string{"json", "text", "console"}, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q", cfg.Logging.Format),
		})
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	if !slices.IsSorted(cfg.Metrics.DurationBuckets) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.duration_buckets",
			Message: "buckets must be in increasing order",
		})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		if !slices.Contains([]string{"always", "never", "ratio"}, cfg.Tracing.Sampler) {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("unsupported sampler %q", cfg.Tracing.Sampler),
			})
		}
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
