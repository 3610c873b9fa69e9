package cycling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/datacycle/pkg/cycling/signatures"
	"mercator-hq/datacycle/pkg/cycling/strategy"
	"mercator-hq/datacycle/pkg/cycling/timer"
	"mercator-hq/datacycle/pkg/notify"
	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/telemetry/metrics"
)

// Data source designators.
const (
	SourceJobs = "jobs"
	SourcePerf = "perf"
)

// RowCountPolicy decides what a pass does when the driver cannot report how
// many rows a delete removed.
type RowCountPolicy string

const (
	// RowCountStop ends the strategy, treating the count like zero.
	RowCountStop RowCountPolicy = "stop"

	// RowCountContinue keeps deleting until a delete reports zero rows or
	// the runtime budget is spent.
	RowCountContinue RowCountPolicy = "continue"
)

// DefaultChunkSize is the number of rows removed per delete.
const DefaultChunkSize = 100

// Cycler runs one cycling pass over a data source.
type Cycler interface {
	Cycle(ctx context.Context) error
}

// Tracer starts spans. *tracing.Tracer and any trace.Tracer satisfy it.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Options configures a cycler.
type Options struct {
	ChunkSize int

	// SleepTime pauses the jobs cycler between chunks. Ignored for perf.
	SleepTime time.Duration

	// Days overrides the retention window; only allowed on the override site.
	Days int

	Environment strategy.Environment

	UnknownRowCount RowCountPolicy

	// MaxRuntime is the perf pass budget. Default: 23 hours
	MaxRuntime time.Duration

	// Notifier announces removed signatures. Default: log only
	Notifier notify.Notifier

	Signatures signatures.Config

	// Strategies replaces the default perf strategies. Their guard must be
	// the Timer passed alongside.
	Strategies []strategy.Strategy
	Timer      *timer.MaxRuntime

	Metrics *metrics.Collector
	Tracer  Tracer

	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.UnknownRowCount == "" {
		o.UnknownRowCount = RowCountStop
	}
	if o.Notifier == nil {
		o.Notifier = notify.NewLogNotifier()
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("datacycle")
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// New returns the cycler for source. Unknown sources and day overrides
// outside the override site fail with *ConfigError before anything runs.
func New(s *store.Store, source string, opts Options) (Cycler, error) {
	switch source {
	case SourceJobs:
		return NewJobCycler(s, opts)
	case SourcePerf:
		return NewPerfCycler(s, opts)
	default:
		return nil, &ConfigError{
			Field:   "data_source",
			Value:   source,
			Message: fmt.Sprintf("must be %q or %q", SourceJobs, SourcePerf),
		}
	}
}

func validatePolicy(p RowCountPolicy) error {
	switch p {
	case RowCountStop, RowCountContinue:
		return nil
	default:
		return &ConfigError{
			Field:   "unknown_rowcount",
			Value:   p,
			Message: fmt.Sprintf("must be %q or %q", RowCountStop, RowCountContinue),
		}
	}
}

func componentLogger(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
