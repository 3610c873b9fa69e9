package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/datacycle/pkg/cli"
	"mercator-hq/datacycle/pkg/config"
	"mercator-hq/datacycle/pkg/config/watch"
	"mercator-hq/datacycle/pkg/scheduler"
	"mercator-hq/datacycle/pkg/server"
	"mercator-hq/datacycle/pkg/telemetry/health"
)

var scheduleFlags struct {
	schedule string
	listen   string
	runNow   bool
	noWatch  bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Cycle the configured data sources on a cron schedule",
	Long: `Run every data source listed in cycling.data_sources on the cron schedule
in cycling.schedule until SIGINT or SIGTERM.

An admin endpoint serves /metrics, /health, /ready and /version on
telemetry.metrics.listen_address. When --config names a file, changes to it
are picked up without a restart; a file that fails validation is ignored.

Examples:
  # Nightly at 03:00 (default)
  datacycle schedule --config /etc/datacycle/config.yaml

  # Every six hours, with an immediate first pass
  datacycle schedule --schedule "0 */6 * * *" --run-now`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleFlags.schedule, "schedule", "", "override cron schedule (standard 5-field syntax or @every)")
	scheduleCmd.Flags().StringVarP(&scheduleFlags.listen, "listen", "l", "", "override admin listen address")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.runNow, "run-now", false, "run one pass immediately after start")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scheduleFlags.schedule != "" {
		cfg.Cycling.Schedule = scheduleFlags.schedule
	}
	if scheduleFlags.listen != "" {
		cfg.Telemetry.Metrics.ListenAddress = scheduleFlags.listen
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(err)
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(func(ctx context.Context) error {
		return a.cycleAll(ctx, config.MustGetConfig())
	})

	checker := health.New(2 * time.Second)
	checker.RegisterCheck("database", a.store.Ping)
	checker.RegisterCheck("scheduler", func(context.Context) error {
		if !sched.IsRunning() {
			return errors.New("scheduler is not running")
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	health.Register(mux, checker, health.NewVersionInfo(Version, GitCommit, BuildDate))
	srv := server.NewServer(server.Config{ListenAddress: cfg.Telemetry.Metrics.ListenAddress}, mux)

	var watcher *watch.Watcher
	if cfgFile != "" && !scheduleFlags.noWatch {
		if watcher, err = watch.New(cfgFile, 0); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := sched.Start(gctx, cfg.Cycling.Schedule); err != nil {
		return cli.WrapConfigError(err)
	}
	defer sched.Stop()

	a.logger.Info("cycling on schedule",
		"data_sources", cfg.Cycling.DataSources,
		"admin_address", cfg.Telemetry.Metrics.ListenAddress,
	)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Watch(gctx, func(next *config.Config) {
				applyReload(a, sched, next)
			})
		})
	}

	if scheduleFlags.runNow {
		g.Go(func() error {
			err := sched.RunNow(gctx)
			var cfgErr *cli.ConfigError
			if errors.As(err, &cfgErr) {
				return err
			}
			if err != nil && gctx.Err() == nil {
				a.logger.Error("initial cycling pass failed", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	sched.Stop()
	if err != nil {
		return cli.NewCommandError("schedule", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// applyReload moves the scheduler to a changed cron expression. Other
// settings are read from the global configuration at the start of each
// pass. The admin listen address and telemetry settings need a restart.
func applyReload(a *app, sched *scheduler.Scheduler, next *config.Config) {
	if next.Cycling.Schedule == sched.Schedule() {
		return
	}
	if err := sched.Reschedule(next.Cycling.Schedule); err != nil {
		a.logger.Error("failed to apply reloaded schedule", "schedule", next.Cycling.Schedule, "error", err)
	}
}
