package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/datacycle/pkg/cli"
	"mercator-hq/datacycle/pkg/config"
	"mercator-hq/datacycle/pkg/scheduler"
	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/store/storetest"
)

// execute runs the root command with args and returns its output. Flag
// values are reset afterwards so tests do not leak into each other.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		resetFlags(rootCmd)
		config.SetConfig(nil)
	})

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeConfig writes a config file pointing at a database in dir.
func writeConfig(t *testing.T, dir, extra string) (cfgPath, dbPath string) {
	t.Helper()
	dbPath = filepath.Join(dir, "perf.db")
	content := "database:\n  path: " + dbPath + "\n" + extra
	cfgPath = filepath.Join(dir, "datacycle.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return cfgPath, dbPath
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "datacycle "+Version) {
		t.Errorf("Expected version line, got %q", out)
	}
	if !strings.Contains(out, "Go Version:") {
		t.Errorf("Expected Go version line, got %q", out)
	}
}

// TestCycleCommand_Jobs tests a one-shot jobs pass against a seeded file and
// the metrics textfile written afterwards.
func TestCycleCommand_Jobs(t *testing.T) {
	dir := t.TempDir()
	promPath := filepath.Join(dir, "datacycle.prom")
	cfgPath, dbPath := writeConfig(t, dir, `cycling:
  chunk_size: 2
telemetry:
  metrics:
    enabled: true
    textfile_path: `+promPath+"\n")

	f := storetest.NewFixtureAt(t, dbPath)
	repo := f.Repository("autoland")
	now := time.Now()
	for i := 0; i < 3; i++ {
		f.Job(repo, now.AddDate(0, 0, -200), "m1", "t1", "g1")
	}
	f.Job(repo, now.AddDate(0, 0, -1), "m2", "t2", "g2")

	if _, err := execute(t, "cycle", "jobs", "--config", cfgPath); err != nil {
		t.Fatalf("cycle jobs failed: %v", err)
	}

	if got := f.Count(store.TableJob, nil); got != 1 {
		t.Errorf("Expected 1 job left, got %d", got)
	}
	if got := f.Count(store.TableMachine, nil); got != 1 {
		t.Errorf("Expected 1 machine left, got %d", got)
	}

	data, err := os.ReadFile(promPath)
	if err != nil {
		t.Fatalf("Expected metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), "datacycle_cycler_jobs_deleted_total 3") {
		t.Errorf("Expected jobs_deleted_total 3 in textfile, got:\n%s", data)
	}
}

// TestCycleCommand_Errors tests the exit codes of rejected invocations.
func TestCycleCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{
			name:     "days outside override site",
			args:     []string{"cycle", "perf", "--days", "30"},
			expected: cli.ExitConfigError,
		},
		{
			name:     "non-positive chunk size",
			args:     []string{"cycle", "jobs", "--chunk-size", "0"},
			expected: cli.ExitConfigError,
		},
		{
			name:     "unknown data source",
			args:     []string{"cycle", "builds"},
			expected: cli.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath, _ := writeConfig(t, t.TempDir(), "")
			_, err := execute(t, append(tt.args, "--config", cfgPath)...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := cli.ExitCode(err); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d (%v)", tt.expected, got, err)
			}
		})
	}
}

// TestCycleCommand_DaysOnOverrideSite tests that the override site may
// shorten retention.
func TestCycleCommand_DaysOnOverrideSite(t *testing.T) {
	cfgPath, _ := writeConfig(t, t.TempDir(), `environment:
  site_hostname: treeherder-prototype2.herokuapp.com
`)
	if _, err := execute(t, "cycle", "perf", "--days", "30", "--config", cfgPath); err != nil {
		t.Fatalf("Expected override site to accept --days, got %v", err)
	}
}

// TestConfigShow tests that the effective configuration is printed with
// credentials masked.
func TestConfigShow(t *testing.T) {
	t.Setenv("DATACYCLE_NOTIFY_CLIENT_ID", "project/perf/cycler")
	cfgPath, _ := writeConfig(t, t.TempDir(), "")

	out, err := execute(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "chunk_size: 100") {
		t.Errorf("Expected default chunk size in output, got:\n%s", out)
	}
	if !strings.Contains(out, "client_id: proj***") {
		t.Errorf("Expected masked client id, got:\n%s", out)
	}
	if strings.Contains(out, "project/perf/cycler") {
		t.Error("Expected client id not to be printed in clear")
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	cfgPath, _ := writeConfig(t, t.TempDir(), "cycling:\n  unknown_rowcount: maybe\n")

	_, err := execute(t, "config", "validate", "--config", cfgPath)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *cli.ConfigError, got %v", err)
	}
}

// TestApplyReload tests that a changed cron expression moves the scheduler
// and an invalid one keeps the current schedule.
func TestApplyReload(t *testing.T) {
	sched := scheduler.New(func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx, "0 3 * * *"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer sched.Stop()

	a := &app{logger: testLogger()}
	next := config.Default()

	next.Cycling.Schedule = "30 1 * * *"
	applyReload(a, sched, next)
	if sched.Schedule() != "30 1 * * *" {
		t.Errorf("Expected schedule %q, got %q", "30 1 * * *", sched.Schedule())
	}

	next.Cycling.Schedule = "not a schedule"
	applyReload(a, sched, next)
	if sched.Schedule() != "30 1 * * *" {
		t.Errorf("Expected schedule kept, got %q", sched.Schedule())
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
