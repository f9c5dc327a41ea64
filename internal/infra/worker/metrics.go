package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bip-digest/internal/pkg/config"
)

// Metrics provides Prometheus metrics for the worker component. It
// embeds the shared configuration metrics (prefixed "worker_config_")
// and adds counters for scheduled digest runs.
type Metrics struct {
	*config.Metrics

	// DigestRunsTotal counts digest runs by status (started, success, failure).
	DigestRunsTotal *prometheus.CounterVec

	// DigestRunDurationSeconds measures end-to-end digest run duration.
	DigestRunDurationSeconds prometheus.Histogram

	// DigestEntriesProcessedTotal counts entries that went into articles.
	DigestEntriesProcessedTotal prometheus.Counter

	// DigestLastSuccessTimestamp is the Unix time of the last successful run.
	DigestLastSuccessTimestamp prometheus.Gauge
}

// NewMetrics registers the worker metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Metrics: config.NewMetrics("worker"),

		DigestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_digest_runs_total",
			Help: "Total number of digest runs by status (started/success/failure)",
		}, []string{"status"}),

		DigestRunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_digest_run_duration_seconds",
			Help:    "Duration of digest run execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		DigestEntriesProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_digest_entries_processed_total",
			Help: "Total number of entries processed across all digest runs",
		}),

		DigestLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_digest_last_success_timestamp",
			Help: "Unix timestamp of the last successful digest run",
		}),
	}
}

// RecordRun counts a run with the given status ("started", "success"
// or "failure").
func (m *Metrics) RecordRun(status string) {
	m.DigestRunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes the duration of one digest run in seconds.
func (m *Metrics) RecordRunDuration(seconds float64) {
	m.DigestRunDurationSeconds.Observe(seconds)
}

// RecordEntriesProcessed adds the entries of one run to the total.
func (m *Metrics) RecordEntriesProcessed(count int) {
	m.DigestEntriesProcessedTotal.Add(float64(count))
}

// RecordLastSuccess marks the current time as the last successful run.
func (m *Metrics) RecordLastSuccess() {
	m.DigestLastSuccessTimestamp.SetToCurrentTime()
}
