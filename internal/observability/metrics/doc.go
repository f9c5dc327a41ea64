// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Scrape metrics (per-source entries, duration, errors)
//   - Content fetch metrics (attempts, duration, size)
//   - Agent metrics (analyzer/generator calls, generated articles)
//   - Run metrics (whole digest runs)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	import "bip-digest/internal/observability/metrics"
//
//	func scrapeSource(name string) {
//	    start := time.Now()
//	    // ... scrape ...
//	    metrics.RecordSourceScrape(name, time.Since(start), count)
//	}
package metrics
