package cycling

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"mercator-hq/datacycle/pkg/cycling/strategy"
	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/telemetry/logging"
	"mercator-hq/datacycle/pkg/telemetry/metrics"
)

// DefaultJobDays is the job retention window.
const DefaultJobDays = 120

// JobCycler removes expired jobs with their logs, then prunes job types, job
// groups and machines no job references any more.
type JobCycler struct {
	store     *store.Store
	days      int
	chunkSize int
	sleepTime time.Duration
	metrics   *metrics.Collector
	tracer    Tracer
	now       func() time.Time
	logger    *slog.Logger
}

// NewJobCycler creates a jobs cycler.
func NewJobCycler(s *store.Store, opts Options) (*JobCycler, error) {
	opts.applyDefaults()
	if err := strategy.ValidateDays(opts.Days, opts.Environment); err != nil {
		return nil, err
	}

	days := DefaultJobDays
	if opts.Days != 0 {
		days = opts.Days
	}

	return &JobCycler{
		store:     s,
		days:      days,
		chunkSize: opts.ChunkSize,
		sleepTime: opts.SleepTime,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		now:       opts.Now,
		logger:    componentLogger("job_cycler"),
	}, nil
}

// Cycle runs one pass. Store errors are logged, not returned; only context
// cancellation fails the pass.
func (c *JobCycler) Cycle(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithDataSource(ctx, SourceJobs)
	ctx, span := c.tracer.Start(ctx, "cycle.jobs", trace.WithAttributes(
		attribute.String("cycle.run_id", runID),
		attribute.Int("cycle.days", c.days),
	))
	defer span.End()

	start := c.now()
	cutoff := start.AddDate(0, 0, -c.days)
	c.logger.WarnContext(ctx, "cycling jobs across all repositories", "days", c.days)

	deleted, err := c.cycleJobs(ctx, cutoff)
	span.SetAttributes(attribute.Int64("cycle.jobs_deleted", deleted))
	if err != nil {
		if ctx.Err() != nil {
			c.metrics.RecordRun(SourceJobs, outcomeInterrupted, c.now().Sub(start))
			return ctx.Err()
		}
		c.logger.ErrorContext(ctx, "error running job cycling", "error", err)
	}
	c.logger.WarnContext(ctx, "deleted jobs", "count", deleted)

	if err := c.removeLeftovers(ctx); err != nil {
		c.metrics.RecordRun(SourceJobs, outcomeInterrupted, c.now().Sub(start))
		return err
	}
	c.metrics.RecordRun(SourceJobs, outcomeCompleted, c.now().Sub(start))
	return nil
}

// cycleJobs deletes jobs submitted before cutoff, one transaction per chunk,
// pausing sleepTime between chunks.
func (c *JobCycler) cycleJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	var limiter *rate.Limiter
	if c.sleepTime > 0 {
		limiter = rate.NewLimiter(rate.Every(c.sleepTime), 1)
		limiter.Allow()
	}

	var total int64
	for {
		ids, err := store.ExpiredJobIDs(ctx, c.store.DB(), cutoff, c.chunkSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		var deleted int64
		err = c.store.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			deleted, err = store.DeleteJobs(ctx, tx, ids)
			return err
		})
		if err != nil {
			return total, err
		}
		if deleted > 0 {
			total += deleted
			c.metrics.RecordJobsDeleted(deleted)
		}
		c.logger.DebugContext(ctx, "deleted job chunk", "jobs", len(ids))

		if len(ids) < c.chunkSize {
			return total, nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return total, err
			}
		}
	}
}

// removeLeftovers prunes ancillary lookup rows in chunks.
func (c *JobCycler) removeLeftovers(ctx context.Context) error {
	c.logger.WarnContext(ctx, "pruning ancillary data: job types, groups and machines")

	for _, table := range []string{store.TableJobType, store.TableJobGroup, store.TableMachine} {
		if err := c.prune(ctx, table); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.ErrorContext(ctx, "failed to prune ancillary data", "table", table, "error", err)
		}
	}
	return nil
}

func (c *JobCycler) prune(ctx context.Context, table string) error {
	unused, err := c.store.UnusedAncillaryIDs(ctx, table)
	if err != nil {
		return err
	}
	c.logger.WarnContext(ctx, "removing unused records", "table", table, "count", len(unused))

	for len(unused) > 0 {
		n := min(c.chunkSize, len(unused))
		c.logger.WarnContext(ctx, "deleting unused records",
			"table", table,
			"deleting", n,
			"of", len(unused),
		)
		removed, err := c.store.DeleteByIDs(ctx, table, unused[:n])
		if err != nil {
			return err
		}
		if removed > 0 {
			c.metrics.RecordAncillaryRemoved(table, removed)
		}
		unused = unused[n:]
	}
	return nil
}
