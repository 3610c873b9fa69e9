package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"mercator-hq/datacycle/pkg/cli"
	"mercator-hq/datacycle/pkg/config"
	"mercator-hq/datacycle/pkg/cycling"
	"mercator-hq/datacycle/pkg/cycling/signatures"
	"mercator-hq/datacycle/pkg/cycling/strategy"
	"mercator-hq/datacycle/pkg/notify"
	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/telemetry/logging"
	"mercator-hq/datacycle/pkg/telemetry/metrics"
	"mercator-hq/datacycle/pkg/telemetry/tracing"
)

// loadConfig loads --config into the global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.ReloadConfig(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	return cfg, nil
}

// setupLogging installs the default logger. --debug forces debug level.
func setupLogging(cfg *config.Config) error {
	level := cfg.Telemetry.Logging.Level
	if debug {
		level = "debug"
	}

	_, err := logging.Setup(logging.Config{
		Level:         level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: !cfg.Telemetry.Logging.DisableRedaction,
		SensitiveKeys: cfg.Telemetry.Logging.SensitiveKeys,
		Writer:        os.Stdout,
	})
	if err != nil {
		return cli.WrapConfigError(err)
	}
	return nil
}

// app holds the long-lived resources shared by cycling passes.
type app struct {
	store   *store.Store
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger

	// runMu serializes passes so a manual run never overlaps a scheduled one.
	runMu sync.Mutex
}

func newApp(cfg *config.Config) (*app, error) {
	st, err := store.Open(&store.Config{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		WALMode:      !cfg.Database.DisableWAL,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(Version))
	if err != nil {
		st.Close()
		return nil, cli.WrapConfigError(err)
	}

	return &app{
		store:   st,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		tracer:  tracer,
		logger:  slog.Default().With("component", "datacycle"),
	}, nil
}

// Close flushes traces and closes the store.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shut down tracer", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// newNotifier builds the notification backend named by cfg.
func newNotifier(cfg *config.NotifyConfig) (notify.Notifier, error) {
	switch cfg.Backend {
	case config.NotifyBackendHTTP:
		n, err := notify.NewHTTPNotifier(notify.HTTPConfig{
			RootURL:     cfg.RootURL,
			ClientID:    cfg.ClientID,
			AccessToken: cfg.AccessToken,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
		})
		if err != nil {
			return nil, cli.WrapConfigError(err)
		}
		return n, nil
	default:
		return notify.NewLogNotifier(), nil
	}
}

// options translates cfg into cycler options. Each pass gets fresh options
// so a reloaded configuration applies to the next run.
func (a *app) options(cfg *config.Config) (cycling.Options, error) {
	notifier, err := newNotifier(&cfg.Notify)
	if err != nil {
		return cycling.Options{}, err
	}

	return cycling.Options{
		ChunkSize: cfg.Cycling.ChunkSize,
		SleepTime: cfg.Cycling.SleepTime,
		Days:      cfg.Cycling.Days,
		Environment: strategy.Environment{
			SiteHostname:     cfg.Environment.SiteHostname,
			OverrideHostname: cfg.Environment.OverrideHostname,
		},
		UnknownRowCount: cycling.RowCountPolicy(cfg.Cycling.UnknownRowCount),
		MaxRuntime:      cfg.Cycling.MaxRuntime,
		Notifier:        notifier,
		Signatures: signatures.Config{
			MaxRowsPerNotification: cfg.Notify.MaxRowsPerNotification,
			MaxNotifications:       cfg.Notify.MaxNotifications,
			Address:                cfg.Notify.Address,
		},
		Metrics: a.metrics,
		Tracer:  a.tracer,
	}, nil
}

// cycle runs one pass over source. Forbidden settings come back as
// *cli.ConfigError and cancellation as cli.ErrInterrupted.
func (a *app) cycle(ctx context.Context, cfg *config.Config, source string) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	opts, err := a.options(cfg)
	if err != nil {
		return err
	}

	cycler, err := cycling.New(a.store, source, opts)
	if err != nil {
		var cfgErr *cycling.ConfigError
		if errors.As(err, &cfgErr) {
			return &cli.ConfigError{Field: cfgErr.Field, Message: cfgErr.Error(), Err: err}
		}
		return err
	}

	if err := cycler.Cycle(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", cli.ErrInterrupted, err)
		}
		return cli.NewCommandError("cycle "+source, err)
	}
	return nil
}

// cycleAll runs every configured data source in order. A failing source is
// logged and the next one still runs; configuration errors and
// interruption stop the loop.
func (a *app) cycleAll(ctx context.Context, cfg *config.Config) error {
	var errs []error
	for _, source := range cfg.Cycling.DataSources {
		err := a.cycle(ctx, cfg, source)
		if err == nil {
			continue
		}

		var cfgErr *cli.ConfigError
		if errors.Is(err, cli.ErrInterrupted) || errors.As(err, &cfgErr) {
			return err
		}
		a.logger.ErrorContext(ctx, "data source cycling failed", "data_source", source, "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
