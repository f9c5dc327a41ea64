// Package observability provides the observability infrastructure for the
// digest pipeline: structured logging, Prometheus metrics and OpenTelemetry
// tracing.
//
// Subpackages:
//   - logging: structured logging with slog and run-ID propagation
//   - metrics: Prometheus metrics for scraping and composition
//   - tracing: OpenTelemetry tracing setup and helpers
//
// Example usage:
//
//	import (
//	    "bip-digest/internal/observability/logging"
//	    "bip-digest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("digest run started")
//
//	    metrics.RecordSourceScrape("bip-warszawa", elapsed, 10)
//	}
package observability
