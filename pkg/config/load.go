package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "DATACYCLE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention DATACYCLE_SECTION_FIELD (e.g., DATACYCLE_CYCLING_CHUNK_SIZE).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from the defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are reported as a
// ValidationError naming the variable.
func applyEnvOverrides(cfg *Config) error {
	env := &envReader{}

	// Database overrides
	env.str("DATABASE_DRIVER", &cfg.Database.Driver)
	env.str("DATABASE_PATH", &cfg.Database.Path)
	env.int("DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	env.duration("DATABASE_BUSY_TIMEOUT", &cfg.Database.BusyTimeout)
	env.bool("DATABASE_DISABLE_WAL", &cfg.Database.DisableWAL)

	// Environment overrides
	env.str("ENVIRONMENT_SITE_HOSTNAME", &cfg.Environment.SiteHostname)
	env.str("ENVIRONMENT_OVERRIDE_HOSTNAME", &cfg.Environment.OverrideHostname)

	// Cycling overrides
	env.int("CYCLING_CHUNK_SIZE", &cfg.Cycling.ChunkSize)
	env.duration("CYCLING_SLEEP_TIME", &cfg.Cycling.SleepTime)
	env.int("CYCLING_DAYS", &cfg.Cycling.Days)
	env.duration("CYCLING_MAX_RUNTIME", &cfg.Cycling.MaxRuntime)
	env.str("CYCLING_UNKNOWN_ROWCOUNT", &cfg.Cycling.UnknownRowCount)
	env.str("CYCLING_SCHEDULE", &cfg.Cycling.Schedule)
	env.list("CYCLING_DATA_SOURCES", &cfg.Cycling.DataSources)

	// Notify overrides
	env.str("NOTIFY_BACKEND", &cfg.Notify.Backend)
	env.str("NOTIFY_ROOT_URL", &cfg.Notify.RootURL)
	env.str("NOTIFY_CLIENT_ID", &cfg.Notify.ClientID)
	env.str("NOTIFY_ACCESS_TOKEN", &cfg.Notify.AccessToken)
	env.str("NOTIFY_ACCESS_TOKEN_FILE", &cfg.Notify.AccessTokenFile)
	env.str("NOTIFY_ADDRESS", &cfg.Notify.Address)
	env.duration("NOTIFY_TIMEOUT", &cfg.Notify.Timeout)

	// Telemetry overrides
	env.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	env.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	env.bool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	env.str("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	env.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	env.str("TELEMETRY_METRICS_TEXTFILE_PATH", &cfg.Telemetry.Metrics.TextfilePath)
	env.bool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	env.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	env.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	env.bool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.OTLP.Insecure)

	if len(env.errs) > 0 {
		return ValidationError{Errors: env.errs}
	}
	return nil
}

// envReader reads DATACYCLE_ variables into configuration fields and
// collects parse failures.
type envReader struct {
	errs []FieldError
}

func (r *envReader) lookup(name string) (string, bool) {
	val := os.Getenv(EnvPrefix + name)
	return val, val != ""
}

func (r *envReader) fail(name, val string, err error) {
	r.errs = append(r.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

func (r *envReader) str(name string, dst *string) {
	if val, ok := r.lookup(name); ok {
		*dst = val
	}
}

func (r *envReader) list(name string, dst *[]string) {
	val, ok := r.lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (r *envReader) int(name string, dst *int) {
	if val, ok := r.lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) float(name string, dst *float64) {
	if val, ok := r.lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) bool(name string, dst *bool) {
	if val, ok := r.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) duration(name string, dst *time.Duration) {
	if val, ok := r.lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = d
	}
}
