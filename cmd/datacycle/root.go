package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/datacycle/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "datacycle",
	Short: "Datacycle - retention for jobs and performance data",
	Long: `Datacycle deletes jobs and performance data older than their retention
windows, in small chunks, so the database stays bounded without long locks.

Performance data is removed by four strategies run in order: main data,
try data, irrelevant repositories and stalled signatures. Signatures left
without data are removed afterwards and announced by email.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching its error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and DATACYCLE_ environment variables when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug output to stdout")
}
