// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scrape metrics track registry scraping per source
var (
	// EntriesScrapedTotal counts entries scraped from each source
	EntriesScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_scraped_total",
			Help: "Total number of entries scraped from sources",
		},
		[]string{"source"},
	)

	// SourceScrapeDuration measures time to scrape a single source
	SourceScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_scrape_duration_seconds",
			Help:    "Time taken to scrape a source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// SourceScrapeErrors counts errors during source scraping
	SourceScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_scrape_errors_total",
			Help: "Total number of source scrape errors",
		},
		[]string{"source", "error_type"},
	)

	// EntriesDeduplicatedTotal counts entries dropped as duplicate URLs
	EntriesDeduplicatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entries_deduplicated_total",
			Help: "Total number of entries dropped because their URL was already seen",
		},
	)

	// SourcesConfigured tracks the number of configured sources
	SourcesConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sources_configured",
			Help: "Number of sources in the active configuration",
		},
	)
)

// Content fetch metrics track full-text enhancement of scraped entries
var (
	// ContentFetchAttemptsTotal counts content fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch entry content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch entry content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// ContentFetchSize measures fetched content size in bytes
	ContentFetchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "content_fetch_size_bytes",
			Help: "Fetched entry content size in bytes",
			Buckets: []float64{
				100, 200, 400, 800, 1600, 3200, 6400, 12800,
				25600, 51200, 102400, 204800, 409600, 819200,
				1638400, 3276800, 6553600, 10485760, // up to 10MB
			},
		},
	)
)

// Agent metrics track the analyzer and article generator calls
var (
	// AgentCallsTotal counts agent calls by operation and status
	AgentCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_calls_total",
			Help: "Total number of analyzer/generator agent calls",
		},
		[]string{"operation", "status"}, // operation: filter, draft, webhook
	)

	// AgentCallDuration measures agent call duration per operation
	AgentCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_call_duration_seconds",
			Help:    "Time taken for an analyzer/generator agent call",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"operation"},
	)

	// ArticlesGeneratedTotal counts generated article drafts by status
	ArticlesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_generated_total",
			Help: "Total number of article drafts generated",
		},
		[]string{"status"},
	)
)

// Run metrics track whole digest runs
var (
	// RunsTotal counts digest runs by status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest runs",
		},
		[]string{"status"},
	)

	// RunDuration measures end-to-end digest run duration
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "End-to-end digest run duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
