// Package logging configures log/slog for the cycling commands.
//
// Loggers built by New mask credentials (access tokens, client ids and
// passwords) before they are written, and add the run_id and data_source
// fields stored in the context to every record logged with a context:
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	ctx = logging.WithRunID(ctx, uuid.NewString())
//	ctx = logging.WithDataSource(ctx, "perf")
//	slog.Default().InfoContext(ctx, "cycling performance data")
//
// Packages log through slog.Default().With("component", ...), so installing
// the logger with Setup is enough to configure the whole process.
package logging
