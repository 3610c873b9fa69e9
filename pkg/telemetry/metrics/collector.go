package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/datacycle/pkg/config"
)

// Collector owns every Prometheus metric datacycle exports. All Record
// methods are safe on a nil Collector and do nothing when metrics are
// disabled, so cyclers can call them unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	strategyMetrics *StrategyMetrics
	runMetrics      *RunMetrics
	leftoverMetrics *LeftoverMetrics

	now func() time.Time
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "datacycle",
//		Subsystem: "cycler",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		strategyMetrics: NewStrategyMetrics(cfg, registry),
		runMetrics:      NewRunMetrics(cfg, registry),
		leftoverMetrics: NewLeftoverMetrics(cfg, registry),
		now:             time.Now,
	}
}

// Registry returns the registry the collector's metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordChunk records one chunked delete of a removal strategy. rows is 0
// when the driver could not report the count.
func (c *Collector) RecordChunk(strategy string, rows int64) {
	if !c.enabled() {
		return
	}

	c.strategyMetrics.RecordChunk(strategy, rows)
}

// RecordStrategy records a finished strategy run.
//
// Parameters:
//   - strategy: strategy name (e.g., "main removal strategy")
//   - outcome: "completed", "exhausted", "timeout", "interrupted" or "failed"
//   - duration: time spent in the strategy
func (c *Collector) RecordStrategy(strategy, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.strategyMetrics.RecordRun(strategy, outcome, duration)
}

// RecordRun records a finished cycling pass and stamps its completion time.
func (c *Collector) RecordRun(source, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.runMetrics.RecordRun(source, outcome, duration, c.now())
}

// RecordRuntimeExceeded records a pass stopped by its runtime budget.
func (c *Collector) RecordRuntimeExceeded(source string) {
	if !c.enabled() {
		return
	}

	c.runMetrics.RecordRuntimeExceeded(source)
}

// RecordJobsDeleted records jobs removed by the jobs pass.
func (c *Collector) RecordJobsDeleted(n int64) {
	if !c.enabled() {
		return
	}

	c.leftoverMetrics.jobsDeleted.Add(float64(n))
}

// RecordAncillaryRemoved records unused job types, job groups or machines
// removed from table.
func (c *Collector) RecordAncillaryRemoved(table string, n int64) {
	if !c.enabled() {
		return
	}

	c.leftoverMetrics.ancillaryRemoved.WithLabelValues(table).Add(float64(n))
}

// RecordSignatureRemoval records signatures removed after the strategies ran
// and the notifications sent about them.
func (c *Collector) RecordSignatureRemoval(removed int64, notifications, failures int) {
	if !c.enabled() {
		return
	}

	c.leftoverMetrics.RecordSignatureRemoval(removed, notifications, failures)
}

// RecordAlertSummariesRemoved records pruned alert summaries.
func (c *Collector) RecordAlertSummariesRemoved(n int64) {
	if !c.enabled() {
		return
	}

	c.leftoverMetrics.alertSummariesRemoved.Add(float64(n))
}
