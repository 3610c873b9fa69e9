package cycling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/datacycle/pkg/cycling/signatures"
	"mercator-hq/datacycle/pkg/cycling/strategy"
	"mercator-hq/datacycle/pkg/cycling/timer"
	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/telemetry/logging"
	"mercator-hq/datacycle/pkg/telemetry/metrics"
)

// AlertSummaryRetention protects alert summaries younger than this window.
// Summaries inside it may still be under investigation.
const AlertSummaryRetention = 180 * 24 * time.Hour

// Strategy outcomes reported to metrics.
const (
	outcomeCompleted   = "completed"
	outcomeExhausted   = "exhausted"
	outcomeInterrupted = "interrupted"
	outcomeTimeout     = "timeout"
	outcomeFailed      = "failed"
)

// PerfCycler runs the removal strategies over performance data, then prunes
// signatures and alert summaries left without data.
type PerfCycler struct {
	store      *store.Store
	strategies []strategy.Strategy
	timer      *timer.MaxRuntime
	remover    *signatures.Remover
	policy     RowCountPolicy
	metrics    *metrics.Collector
	tracer     Tracer
	now        func() time.Time
	logger     *slog.Logger
}

// NewPerfCycler creates a perf cycler. Unless opts.Strategies is set, it
// builds Main, TryData, IrrelevantData and StalledData guarded by its timer.
func NewPerfCycler(s *store.Store, opts Options) (*PerfCycler, error) {
	opts.applyDefaults()
	if err := validatePolicy(opts.UnknownRowCount); err != nil {
		return nil, err
	}
	if err := strategy.ValidateDays(opts.Days, opts.Environment); err != nil {
		return nil, err
	}

	guard := opts.Timer
	if guard == nil {
		guard = timer.New(opts.MaxRuntime)
	}

	strategies := opts.Strategies
	if strategies == nil {
		var err error
		strategies, err = strategy.All(strategy.Options{
			ChunkSize:   opts.ChunkSize,
			Days:        opts.Days,
			Environment: opts.Environment,
			Registry:    s,
			Guard:       guard,
			Now:         opts.Now,
		})
		if err != nil {
			return nil, err
		}
	}

	return &PerfCycler{
		store:      s,
		strategies: strategies,
		timer:      guard,
		remover:    signatures.NewRemover(s, opts.Notifier, guard, opts.Signatures),
		policy:     opts.UnknownRowCount,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		now:        opts.Now,
		logger:     componentLogger("perf_cycler"),
	}, nil
}

// MaxTimestamp returns the most recent strategy cutoff. Signatures last
// updated at or before it are pruning candidates.
func (c *PerfCycler) MaxTimestamp() time.Time {
	var latest time.Time
	for _, s := range c.strategies {
		if ts := s.MaxTimestamp(); ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

// Cycle runs one pass. Exhausted strategies are skipped over and a spent
// runtime budget ends the pass successfully; only context cancellation is
// returned as an error.
func (c *PerfCycler) Cycle(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithDataSource(ctx, SourcePerf)
	ctx, span := c.tracer.Start(ctx, "cycle.perf", trace.WithAttributes(
		attribute.String("cycle.run_id", runID),
		attribute.Int("cycle.strategies", len(c.strategies)),
	))
	defer span.End()

	start := c.now()
	c.timer.Start()
	c.logger.WarnContext(ctx, "cycling performance data")

	err := c.cycle(ctx)

	outcome := outcomeCompleted
	switch {
	case errors.Is(err, ErrMaxRuntimeExceeded):
		outcome = outcomeTimeout
		c.metrics.RecordRuntimeExceeded(SourcePerf)
		c.logger.WarnContext(ctx, "stopping pass", "error", err, "elapsed", c.timer.Elapsed())
		err = nil
	case err != nil:
		outcome = outcomeInterrupted
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.RecordRun(SourcePerf, outcome, c.now().Sub(start))
	span.SetAttributes(attribute.String("cycle.outcome", outcome))
	return err
}

func (c *PerfCycler) cycle(ctx context.Context) error {
	for _, s := range c.strategies {
		c.logger.WarnContext(ctx, "cycling data using strategy", "strategy", s.Name())

		err := c.runStrategy(ctx, s)
		switch {
		case err == nil:
		case errors.Is(err, ErrMaxRuntimeExceeded):
			return err
		case errors.Is(err, ErrNoDataCyclingAtAll):
			c.logger.WarnContext(ctx, err.Error(), "strategy", s.Name())
		default:
			return err
		}
	}
	return c.removeLeftovers(ctx)
}

func (c *PerfCycler) runStrategy(ctx context.Context, s strategy.Strategy) error {
	ctx, span := c.tracer.Start(ctx, "cycle.strategy", trace.WithAttributes(
		attribute.String("cycle.strategy", s.Name()),
		attribute.Int64("cycle.max_timestamp", s.MaxTimestamp().Unix()),
	))
	defer span.End()

	start := c.now()
	deleted, err := c.deleteInChunks(ctx, s)
	span.SetAttributes(attribute.Int64("cycle.rows_deleted", deleted))

	outcome := outcomeCompleted
	switch {
	case err == nil:
	case errors.Is(err, ErrMaxRuntimeExceeded):
		outcome = outcomeTimeout
	case errors.Is(err, ErrNoDataCyclingAtAll):
		outcome = outcomeExhausted
	case ctx.Err() != nil:
		outcome = outcomeInterrupted
	default:
		outcome = outcomeFailed
	}
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("cycle.outcome", outcome))
	c.metrics.RecordStrategy(s.Name(), outcome, c.now().Sub(start))
	return err
}

// deleteInChunks calls Remove until a delete reports zero rows, the
// strategy is exhausted, the budget is spent or the store fails. It returns
// the rows deleted by this strategy.
func (c *PerfCycler) deleteInChunks(ctx context.Context, s strategy.Strategy) (int64, error) {
	var (
		total         int64
		anySuccessful bool
	)

	for {
		if err := c.timer.Check(); err != nil {
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := s.Remove(ctx, c.store.DB())
		if err != nil {
			if errors.Is(err, ErrMaxRuntimeExceeded) || errors.Is(err, ErrNoDataCyclingAtAll) || ctx.Err() != nil {
				return total, err
			}
			return total, c.handleChunkError(ctx, s, err, anySuccessful)
		}

		switch {
		case deleted == 0:
			return total, nil
		case deleted == store.UnknownRowCount:
			if c.policy == RowCountStop {
				c.logger.WarnContext(ctx, "driver did not report deleted rows, stopping strategy",
					"strategy", s.Name(),
				)
				return total, nil
			}
			anySuccessful = true
			c.metrics.RecordChunk(s.Name(), 0)
		default:
			anySuccessful = true
			total += deleted
			c.metrics.RecordChunk(s.Name(), deleted)
			c.logger.DebugContext(ctx, "deleted performance datum rows",
				"strategy", s.Name(),
				"rows", deleted,
			)
		}
	}
}

// handleChunkError keeps partial progress after an intermittent failure and
// turns a failure without any progress into exhaustion.
func (c *PerfCycler) handleChunkError(ctx context.Context, s strategy.Strategy, err error, anySuccessful bool) error {
	msg := "failed to delete performance data chunk"
	args := []any{"strategy", s.Name(), "error", err}

	var storeErr *store.StoreError
	if errors.As(err, &storeErr) && storeErr.Statement != "" {
		args = append(args, "statement", storeErr.Statement)
	}

	c.logger.WarnContext(ctx, msg, args...)
	if anySuccessful {
		return nil
	}
	return &StrategyError{
		Strategy: s.Name(),
		Cause:    fmt.Errorf("%w: %w", ErrNoDataCyclingAtAll, err),
	}
}

// removeLeftovers prunes signatures without data and alert summaries
// without alerts. Only a spent budget or cancellation is returned.
func (c *PerfCycler) removeLeftovers(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "cycle.leftovers")
	defer span.End()

	cutoff := c.MaxTimestamp()
	sigs, err := c.store.ExpiredSignatures(ctx, cutoff)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list expired signatures", "error", err)
	} else {
		result, err := c.remover.RemoveInChunks(ctx, sigs)
		c.metrics.RecordSignatureRemoval(result.Removed, result.Notifications, result.NotificationFailures)
		span.SetAttributes(attribute.Int64("cycle.signatures_removed", result.Removed))
		switch {
		case err == nil:
		case errors.Is(err, ErrMaxRuntimeExceeded) || ctx.Err() != nil:
			return err
		default:
			c.logger.ErrorContext(ctx, "failed to remove expired signatures", "error", err)
		}
	}

	c.logger.WarnContext(ctx, "removing alert summaries which no longer have any alerts")
	removed, err := c.store.PruneAlertSummaries(ctx, c.now().Add(-AlertSummaryRetention))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.ErrorContext(ctx, "failed to prune alert summaries", "error", err)
		return nil
	}
	c.metrics.RecordAlertSummariesRemoved(removed)
	span.SetAttributes(attribute.Int64("cycle.alert_summaries_removed", removed))
	return nil
}
