/*
Package cli provides helpers shared by the datacycle commands.

Errors returned by a command map to exit codes through ExitCode: a
*ConfigError exits with 2, ErrInterrupted with 130, anything else with 1.

Signal handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Output formatting for commands that print results:

	formatter, err := cli.NewFormatter(cli.FormatYAML)
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, cfg)
*/
package cli
