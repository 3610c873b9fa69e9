package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/datacycle/pkg/config"
)

// RunMetrics tracks whole cycling passes per data source.
//
// Metrics:
//   - datacycle_cycler_runs_total: passes by data source and outcome
//   - datacycle_cycler_run_duration_seconds: pass duration
//   - datacycle_cycler_last_run_timestamp_seconds: completion time of the latest pass
//   - datacycle_cycler_runtime_exceeded_total: passes stopped by the runtime budget
type RunMetrics struct {
	runsTotal       *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	lastRun         *prometheus.GaugeVec
	runtimeExceeded *prometheus.CounterVec
}

// NewRunMetrics creates and registers pass metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of cycling passes by outcome",
			},
			[]string{"data_source", "outcome"},
		),

		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of a cycling pass in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"data_source"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the latest cycling pass finished",
			},
			[]string{"data_source", "outcome"},
		),

		runtimeExceeded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runtime_exceeded_total",
				Help:      "Total number of passes stopped by the maximum runtime",
			},
			[]string{"data_source"},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.durationSeconds,
		rm.lastRun,
		rm.runtimeExceeded,
	)

	return rm
}

// RecordRun records a finished pass.
func (rm *RunMetrics) RecordRun(source, outcome string, duration time.Duration, finished time.Time) {
	rm.runsTotal.WithLabelValues(source, outcome).Inc()
	rm.durationSeconds.WithLabelValues(source).Observe(duration.Seconds())
	rm.lastRun.WithLabelValues(source, outcome).Set(float64(finished.Unix()))
}

// RecordRuntimeExceeded records a pass stopped by its runtime budget.
func (rm *RunMetrics) RecordRuntimeExceeded(source string) {
	rm.runtimeExceeded.WithLabelValues(source).Inc()
}
