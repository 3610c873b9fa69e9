package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/datacycle/pkg/config"
)

// LeftoverMetrics tracks rows removed around the strategies: jobs, unused
// ancillary rows, orphaned signatures and empty alert summaries.
type LeftoverMetrics struct {
	jobsDeleted           prometheus.Counter
	ancillaryRemoved      *prometheus.CounterVec
	signaturesRemoved     prometheus.Counter
	notificationsTotal    *prometheus.CounterVec
	alertSummariesRemoved prometheus.Counter
}

// NewLeftoverMetrics creates and registers leftover metrics with the provided registry.
func NewLeftoverMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LeftoverMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	lm := &LeftoverMetrics{
		jobsDeleted: counter("jobs_deleted_total", "Total number of expired jobs deleted"),

		ancillaryRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ancillary_removed_total",
				Help:      "Total number of unused job types, job groups and machines removed",
			},
			[]string{"table"},
		),

		signaturesRemoved: counter("signatures_removed_total", "Total number of performance signatures removed"),

		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "signature_notifications_total",
				Help:      "Total number of removed-signature notifications by status",
			},
			[]string{"status"},
		),

		alertSummariesRemoved: counter("alert_summaries_removed_total", "Total number of alert summaries without alerts removed"),
	}

	registry.MustRegister(
		lm.jobsDeleted,
		lm.ancillaryRemoved,
		lm.signaturesRemoved,
		lm.notificationsTotal,
		lm.alertSummariesRemoved,
	)

	return lm
}

// RecordSignatureRemoval records removed signatures and notification results.
func (lm *LeftoverMetrics) RecordSignatureRemoval(removed int64, notifications, failures int) {
	lm.signaturesRemoved.Add(float64(removed))
	if sent := notifications - failures; sent > 0 {
		lm.notificationsTotal.WithLabelValues("sent").Add(float64(sent))
	}
	if failures > 0 {
		lm.notificationsTotal.WithLabelValues("failed").Add(float64(failures))
	}
}
