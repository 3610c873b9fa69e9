package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/datacycle/pkg/config"
)

// StrategyMetrics tracks removal strategies over performance data.
//
// Metrics:
//   - datacycle_cycler_rows_deleted_total: performance datum rows deleted by strategy
//   - datacycle_cycler_chunks_total: chunked deletes issued by strategy
//   - datacycle_cycler_strategy_runs_total: strategy runs by outcome
//   - datacycle_cycler_strategy_duration_seconds: time spent per strategy
type StrategyMetrics struct {
	rowsDeleted     *prometheus.CounterVec
	chunksTotal     *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
}

// NewStrategyMetrics creates and registers strategy metrics with the provided registry.
func NewStrategyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StrategyMetrics {
	sm := &StrategyMetrics{
		rowsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rows_deleted_total",
				Help:      "Total number of performance datum rows deleted",
			},
			[]string{"strategy"},
		),

		chunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chunks_total",
				Help:      "Total number of chunked deletes issued",
			},
			[]string{"strategy"},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "strategy_runs_total",
				Help:      "Total number of strategy runs by outcome",
			},
			[]string{"strategy", "outcome"},
		),

		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "strategy_duration_seconds",
				Help:      "Time spent running a removal strategy in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"strategy"},
		),
	}

	registry.MustRegister(
		sm.rowsDeleted,
		sm.chunksTotal,
		sm.runsTotal,
		sm.durationSeconds,
	)

	return sm
}

// RecordChunk records one chunked delete.
func (sm *StrategyMetrics) RecordChunk(strategy string, rows int64) {
	sm.chunksTotal.WithLabelValues(strategy).Inc()
	if rows > 0 {
		sm.rowsDeleted.WithLabelValues(strategy).Add(float64(rows))
	}
}

// RecordRun records a finished strategy run.
func (sm *StrategyMetrics) RecordRun(strategy, outcome string, duration time.Duration) {
	sm.runsTotal.WithLabelValues(strategy, outcome).Inc()
	sm.durationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}
