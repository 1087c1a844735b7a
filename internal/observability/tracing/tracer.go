// Package tracing provides OpenTelemetry tracing for the update pipeline.
// Each update job runs under a root span with one child span per stage.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the feedpress application.
var tracer = otel.Tracer("feedpress")

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.fetch")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// Setup installs an SDK tracer provider as the global provider and returns
// a shutdown function to flush spans on daemon exit. Without an exporter
// configured the provider is effectively a no-op, which keeps local runs
// quiet while letting deployments attach one.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	provider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer("feedpress")
	return provider.Shutdown, nil
}
