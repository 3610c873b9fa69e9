package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if cfg.Database.Driver != "sqlite" || cfg.Database.MaxOpenConns != 1 {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Cycling.ChunkSize != 100 || cfg.Cycling.UnknownRowCount != "stop" {
		t.Errorf("unexpected cycling defaults: %+v", cfg.Cycling)
	}
	if strings.Join(cfg.Cycling.DataSources, ",") != "jobs,perf" {
		t.Errorf("expected data sources jobs,perf, got %v", cfg.Cycling.DataSources)
	}
	if cfg.Notify.Backend != "log" || cfg.Notify.Address != "perftest-alerts@mozilla.com" {
		t.Errorf("unexpected notify defaults: %+v", cfg.Notify)
	}
	if cfg.Telemetry.Metrics.Path != "/metrics" || cfg.Telemetry.Metrics.Namespace != "datacycle" {
		t.Errorf("unexpected metrics defaults: %+v", cfg.Telemetry.Metrics)
	}

	// Default data sources must not alias the package variable
	cfg.Cycling.DataSources[0] = "perf"
	if DefaultDataSources[0] != "jobs" {
		t.Error("expected DefaultDataSources unchanged")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "bad driver",
			mutate: func(c *Config) { c.Database.Driver = "postgres" },
			fields: []string{"database.driver"},
		},
		{
			name:   "zero chunk size",
			mutate: func(c *Config) { c.Cycling.ChunkSize = 0 },
			fields: []string{"cycling.chunk_size"},
		},
		{
			name: "negative durations",
			mutate: func(c *Config) {
				c.Cycling.SleepTime = -1
				c.Database.BusyTimeout = -1
			},
			fields: []string{"database.busy_timeout", "cycling.sleep_time"},
		},
		{
			name:   "negative days",
			mutate: func(c *Config) { c.Cycling.Days = -3 },
			fields: []string{"cycling.days"},
		},
		{
			name: "http backend needs token",
			mutate: func(c *Config) {
				c.Notify.Backend = "http"
				c.Notify.RootURL = "https://tc.example.com"
			},
			fields: []string{"notify.access_token"},
		},
		{
			name: "http backend with bad url",
			mutate: func(c *Config) {
				c.Notify.Backend = "http"
				c.Notify.RootURL = "tc.example.com"
				c.Notify.AccessToken = "x"
			},
			fields: []string{"notify.root_url"},
		},
		{
			name:   "bad address",
			mutate: func(c *Config) { c.Notify.Address = "perftest" },
			fields: []string{"notify.address"},
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
			},
			fields: []string{"telemetry.tracing.endpoint"},
		},
		{
			name:   "unsorted buckets",
			mutate: func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{10, 1} },
			fields: []string{"telemetry.metrics.duration_buckets"},
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			fields: []string{"telemetry.logging.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Errors) != len(tt.fields) {
				t.Fatalf("expected %d errors, got %d: %v", len(tt.fields), len(verr.Errors), verr)
			}
			for i, field := range tt.fields {
				if verr.Errors[i].Field != field {
					t.Errorf("expected field %q, got %q", field, verr.Errors[i].Field)
				}
			}
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "with 2 errors") {
		t.Errorf("unexpected message: %q", multi.Error())
	}
}

// TestRedacted tests that credentials are masked on a copy only.
func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Notify.ClientID = "project/perf"
	cfg.Notify.AccessToken = "secret-token-value"

	out := cfg.Redacted()
	if out.Notify.AccessToken != "secr***" {
		t.Errorf("Expected redacted token, got %q", out.Notify.AccessToken)
	}
	if out.Notify.ClientID != "proj***" {
		t.Errorf("Expected redacted client id, got %q", out.Notify.ClientID)
	}
	if cfg.Notify.AccessToken != "secret-token-value" {
		t.Error("Expected original configuration unchanged")
	}

	out.Cycling.DataSources[0] = "changed"
	if cfg.Cycling.DataSources[0] == "changed" {
		t.Error("Expected data sources to be copied")
	}
}
