package config

import (
	"time"

	"mercator-hq/datacycle/pkg/telemetry/logging"
)

// Config is the root configuration structure for datacycle. It describes
// the database being cycled, the deployment environment, the cycling
// parameters, signature-removal notifications and telemetry.
type Config struct {
	// Database selects the SQL driver and file holding jobs and
	// performance data.
	Database DatabaseConfig `yaml:"database"`

	// Environment describes the deployment the process runs in.
	Environment EnvironmentConfig `yaml:"environment"`

	// Cycling contains the retention pass parameters.
	Cycling CyclingConfig `yaml:"cycling"`

	// Notify configures notifications about removed performance signatures.
	Notify NotifyConfig `yaml:"notify"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains SQL store configuration.
type DatabaseConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/perf.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// DisableWAL turns off Write-Ahead Logging.
	// Default: false
	DisableWAL bool `yaml:"disable_wal"`
}

// EnvironmentConfig describes the deployment site.
type EnvironmentConfig struct {
	// SiteHostname is the hostname of the site this process serves.
	SiteHostname string `yaml:"site_hostname"`

	// OverrideHostname is the only site allowed to override the retention
	// window with cycling.days.
	// Default: "treeherder-prototype2.herokuapp.com"
	OverrideHostname string `yaml:"override_hostname"`
}

// CyclingConfig contains retention pass configuration.
type CyclingConfig struct {
	// ChunkSize is the number of rows removed per delete.
	// Default: 100
	ChunkSize int `yaml:"chunk_size"`

	// SleepTime pauses the jobs pass between chunks.
	// Default: 0 (no pause)
	SleepTime time.Duration `yaml:"sleep_time"`

	// Days overrides the retention window. Only honored on the override site.
	// Default: 0 (use the per-strategy windows)
	Days int `yaml:"days"`

	// MaxRuntime bounds a performance data pass.
	// Default: 23h
	MaxRuntime time.Duration `yaml:"max_runtime"`

	// UnknownRowCount decides what happens when the driver cannot report
	// deleted rows.
	// Options: "stop", "continue"
	// Default: "stop"
	UnknownRowCount string `yaml:"unknown_rowcount"`

	// Schedule is the cron expression used by the schedule command.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// DataSources lists what the schedule command cycles, in order.
	// Options: "jobs", "perf"
	// Default: ["jobs", "perf"]
	DataSources []string `yaml:"data_sources"`
}

// NotifyConfig contains signature-removal notification configuration.
type NotifyConfig struct {
	// Backend selects how notifications are delivered.
	// Options: "log", "http"
	// Default: "log"
	Backend string `yaml:"backend"`

	// RootURL is the notification service root URL (http backend).
	RootURL string `yaml:"root_url"`

	// ClientID identifies this process to the notification service.
	ClientID string `yaml:"client_id"`

	// AccessToken authenticates against the notification service.
	AccessToken string `yaml:"access_token"`

	// AccessTokenFile names a file holding the access token, such as a
	// mounted secret. It is read when AccessToken is empty.
	AccessTokenFile string `yaml:"access_token_file"`

	// Address receives the notification emails.
	// Default: "perftest-alerts@mozilla.com"
	Address string `yaml:"address"`

	// MaxRowsPerNotification bounds the signatures listed per email.
	// Default: 50
	MaxRowsPerNotification int `yaml:"max_rows_per_notification"`

	// MaxNotifications bounds the emails sent per pass.
	// Default: 10
	MaxNotifications int `yaml:"max_notifications"`

	// Timeout bounds a single notification request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after a failed request.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// DisableRedaction logs credential values in clear.
	// Default: false
	DisableRedaction bool `yaml:"disable_redaction"`

	// SensitiveKeys extends the attribute keys masked in logs.
	SensitiveKeys []string `yaml:"sensitive_keys"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "datacycle"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "cycler"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the schedule command serves metrics.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// TextfilePath, when set, receives the metrics in text format after each
	// one-shot cycle run (node_exporter textfile collector).
	TextfilePath string `yaml:"textfile_path"`

	// DurationBuckets defines histogram buckets for pass and strategy
	// durations (seconds).
	// Default: [1, 10, 60, 300, 900, 3600, 10800, 43200, 82800]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "datacycle"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Redacted returns a copy of cfg with credentials masked, for printing.
func (c *Config) Redacted() *Config {
	out := *c
	out.Cycling.DataSources = append([]string(nil), c.Cycling.DataSources...)
	out.Telemetry.Logging.SensitiveKeys = append([]string(nil), c.Telemetry.Logging.SensitiveKeys...)
	out.Telemetry.Metrics.DurationBuckets = append([]float64(nil), c.Telemetry.Metrics.DurationBuckets...)
	out.Notify.ClientID = logging.RedactValue(c.Notify.ClientID)
	out.Notify.AccessToken = logging.RedactValue(c.Notify.AccessToken)
	return &out
}
