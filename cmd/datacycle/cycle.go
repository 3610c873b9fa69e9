package main

import (
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/datacycle/pkg/cli"
	"mercator-hq/datacycle/pkg/config"
	"mercator-hq/datacycle/pkg/cycling"
)

var cycleFlags struct {
	days      int
	chunkSize int
	sleepTime int
}

var cycleCmd = &cobra.Command{
	Use:   "cycle [jobs|perf]",
	Short: "Run one cycling pass over a data source",
	Long: `Delete expired data of one data source and exit.

The jobs source removes jobs older than 120 days with their logs, then prunes
job types, job groups and machines no job uses any more. The perf source runs
the performance data strategies within a 23 hour budget and removes the
signatures left without data.

Examples:
  # Cycle jobs (default)
  datacycle cycle

  # Cycle performance data in chunks of 500 rows
  datacycle cycle perf --chunk-size 500

  # Shorten retention on the override site only
  datacycle cycle perf --days 30`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{cycling.SourceJobs, cycling.SourcePerf},
	RunE:      runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().IntVar(&cycleFlags.days, "days", 0, "data cycle interval expressed in days (only allowed on the override site)")
	cycleCmd.Flags().IntVar(&cycleFlags.chunkSize, "chunk-size", config.DefaultChunkSize, "maximum number of rows deleted per statement")
	cycleCmd.Flags().IntVar(&cycleFlags.sleepTime, "sleep-time", 0, "seconds to sleep between job chunks (ignored for perf)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("days") {
		cfg.Cycling.Days = cycleFlags.days
	}
	if flags.Changed("chunk-size") {
		cfg.Cycling.ChunkSize = cycleFlags.chunkSize
	}
	if flags.Changed("sleep-time") {
		cfg.Cycling.SleepTime = time.Duration(cycleFlags.sleepTime) * time.Second
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(err)
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	source := cycling.SourceJobs
	if len(args) == 1 {
		source = args[0]
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.cycle(ctx, cfg, source)

	if werr := a.metrics.WriteTextfile(cfg.Telemetry.Metrics.TextfilePath); werr != nil {
		a.logger.Warn("failed to write metrics textfile",
			"path", cfg.Telemetry.Metrics.TextfilePath,
			"error", werr,
		)
	}
	return err
}
