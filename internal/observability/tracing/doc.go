// Package tracing provides OpenTelemetry tracing integration.
//
// The worker installs an SDK tracer provider at startup (OTLP export when
// an endpoint is configured) and each digest run opens spans around the
// collect, filter, draft and deliver stages. The HTTP middleware traces
// the worker's health and metrics endpoints.
//
// Example usage:
//
//	import "bip-digest/internal/observability/tracing"
//
//	func main() {
//	    shutdown, err := tracing.Setup(ctx)
//	    if err != nil { ... }
//	    defer shutdown(context.Background())
//	}
//
//	func run(ctx context.Context) {
//	    ctx, span := tracing.StartSpan(ctx, "digest.collect")
//	    defer span.End()
//	}
package tracing
