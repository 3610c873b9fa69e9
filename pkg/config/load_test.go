package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datacycle.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: "sqlite3"
  path: "./treeherder.db"

environment:
  site_hostname: "treeherder.mozilla.org"

cycling:
  chunk_size: 500
  sleep_time: "2s"
  unknown_rowcount: "continue"
  data_sources: ["perf"]

notify:
  backend: "http"
  root_url: "https://firefox-ci-tc.services.mozilla.com"
  client_id: "project/treeherder"
  access_token: "secret"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: true
    textfile_path: "/var/lib/node_exporter/datacycle.prom"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected driver %q, got %q", "sqlite3", cfg.Database.Driver)
	}
	if cfg.Cycling.ChunkSize != 500 {
		t.Errorf("expected chunk size 500, got %d", cfg.Cycling.ChunkSize)
	}
	if cfg.Cycling.SleepTime != 2*time.Second {
		t.Errorf("expected sleep time 2s, got %v", cfg.Cycling.SleepTime)
	}
	if len(cfg.Cycling.DataSources) != 1 || cfg.Cycling.DataSources[0] != "perf" {
		t.Errorf("expected data sources [perf], got %v", cfg.Cycling.DataSources)
	}
	if cfg.Notify.Backend != "http" || cfg.Notify.ClientID != "project/treeherder" {
		t.Errorf("unexpected notify config: %+v", cfg.Notify)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}

	// Defaults fill the rest
	if cfg.Cycling.Schedule != DefaultSchedule {
		t.Errorf("expected default schedule, got %q", cfg.Cycling.Schedule)
	}
	if cfg.Cycling.MaxRuntime != 23*time.Hour {
		t.Errorf("expected 23h max runtime, got %v", cfg.Cycling.MaxRuntime)
	}
	if cfg.Notify.MaxRowsPerNotification != 50 || cfg.Notify.MaxNotifications != 10 {
		t.Errorf("unexpected notify limits: %+v", cfg.Notify)
	}
	if cfg.Environment.OverrideHostname != DefaultOverrideHostname {
		t.Errorf("expected default override hostname, got %q", cfg.Environment.OverrideHostname)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "invalid yaml",
			content: "cycling: [",
			errText: "failed to parse",
		},
		{
			name:    "unknown data source",
			content: "cycling:\n  data_sources: [jobs, alerts]\n",
			errText: "cycling.data_sources[1]",
		},
		{
			name:    "bad schedule",
			content: "cycling:\n  schedule: \"every day\"\n",
			errText: "cycling.schedule",
		},
		{
			name:    "http backend without root url",
			content: "notify:\n  backend: http\n  access_token: x\n",
			errText: "notify.root_url",
		},
		{
			name:    "bad policy",
			content: "cycling:\n  unknown_rowcount: maybe\n",
			errText: "cycling.unknown_rowcount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "cycling:\n  chunk_size: 50\n")

	t.Setenv("DATACYCLE_CYCLING_CHUNK_SIZE", "250")
	t.Setenv("DATACYCLE_CYCLING_DATA_SOURCES", "perf, jobs")
	t.Setenv("DATACYCLE_CYCLING_SLEEP_TIME", "500ms")
	t.Setenv("DATACYCLE_NOTIFY_ACCESS_TOKEN", "from-env")
	t.Setenv("DATACYCLE_TELEMETRY_METRICS_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Cycling.ChunkSize != 250 {
		t.Errorf("expected chunk size 250, got %d", cfg.Cycling.ChunkSize)
	}
	if strings.Join(cfg.Cycling.DataSources, ",") != "perf,jobs" {
		t.Errorf("expected data sources perf,jobs, got %v", cfg.Cycling.DataSources)
	}
	if cfg.Cycling.SleepTime != 500*time.Millisecond {
		t.Errorf("expected sleep time 500ms, got %v", cfg.Cycling.SleepTime)
	}
	if cfg.Notify.AccessToken != "from-env" {
		t.Errorf("expected access token from env, got %q", cfg.Notify.AccessToken)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled from env")
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("DATACYCLE_DATABASE_PATH", "/srv/perf.db")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Path != "/srv/perf.db" {
		t.Errorf("expected database path from env, got %q", cfg.Database.Path)
	}
	if cfg.Cycling.ChunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.Cycling.ChunkSize)
	}
}

func TestLoadConfigWithEnvOverrides_MalformedValue(t *testing.T) {
	t.Setenv("DATACYCLE_CYCLING_DAYS", "ninety")
	t.Setenv("DATACYCLE_CYCLING_SLEEP_TIME", "soon")

	_, err := LoadConfigWithEnvOverrides("")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
	if verr.Errors[0].Field != "DATACYCLE_CYCLING_SLEEP_TIME" && verr.Errors[1].Field != "DATACYCLE_CYCLING_SLEEP_TIME" {
		t.Errorf("expected sleep time variable named, got %v", verr)
	}
}
