package config

import "time"

// Notification backends.
const (
	NotifyBackendLog  = "log"
	NotifyBackendHTTP = "http"
)

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabasePath         = "data/perf.db"
	DefaultDatabaseMaxOpenConns = 1
	DefaultDatabaseBusyTimeout  = 5 * time.Second

	// Environment defaults
	DefaultOverrideHostname = "treeherder-prototype2.herokuapp.com"

	// Cycling defaults
	DefaultChunkSize       = 100
	DefaultMaxRuntime      = 23 * time.Hour
	DefaultUnknownRowCount = "stop"
	DefaultSchedule        = "0 3 * * *"

	// Notify defaults
	DefaultNotifyBackend                = NotifyBackendLog
	DefaultNotifyAddress                = "perftest-alerts@mozilla.com"
	DefaultNotifyMaxRowsPerNotification = 50
	DefaultNotifyMaxNotifications       = 10
	DefaultNotifyTimeout                = 30 * time.Second
	DefaultNotifyMaxRetries             = 3

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsNamespace     = "datacycle"
	DefaultMetricsSubsystem     = "cycler"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultPrometheusPath       = "/metrics"
	DefaultTracingSampler       = "always"
	DefaultTracingSamplingRate  = 1.0
	DefaultTracingServiceName   = "datacycle"
	DefaultOTLPTimeout          = 10 * time.Second
)

// DefaultDataSources is the order the schedule command cycles data sources in.
var DefaultDataSources = []string{"jobs", "perf"}

// DefaultDurationBuckets spans a few seconds up to the 23 hour runtime bound.
var DefaultDurationBuckets = []float64{1, 10, 60, 300, 900, 3600, 10800, 43200, 82800}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}

	if cfg.Environment.OverrideHostname == "" {
		cfg.Environment.OverrideHostname = DefaultOverrideHostname
	}

	// Cycling defaults
	if cfg.Cycling.ChunkSize == 0 {
		cfg.Cycling.ChunkSize = DefaultChunkSize
	}
	if cfg.Cycling.MaxRuntime == 0 {
		cfg.Cycling.MaxRuntime = DefaultMaxRuntime
	}
	if cfg.Cycling.UnknownRowCount == "" {
		cfg.Cycling.UnknownRowCount = DefaultUnknownRowCount
	}
	if cfg.Cycling.Schedule == "" {
		cfg.Cycling.Schedule = DefaultSchedule
	}
	if len(cfg.Cycling.DataSources) == 0 {
		cfg.Cycling.DataSources = append([]string(nil), DefaultDataSources...)
	}

	// Notify defaults
	if cfg.Notify.Backend == "" {
		cfg.Notify.Backend = DefaultNotifyBackend
	}
	if cfg.Notify.Address == "" {
		cfg.Notify.Address = DefaultNotifyAddress
	}
	if cfg.Notify.MaxRowsPerNotification == 0 {
		cfg.Notify.MaxRowsPerNotification = DefaultNotifyMaxRowsPerNotification
	}
	if cfg.Notify.MaxNotifications == 0 {
		cfg.Notify.MaxNotifications = DefaultNotifyMaxNotifications
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}
	if cfg.Notify.MaxRetries == 0 {
		cfg.Notify.MaxRetries = DefaultNotifyMaxRetries
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultPrometheusPath
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}
