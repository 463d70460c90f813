package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures the span exporter, grounded on the
// teacher's TracingConfig (service name, environment, collector
// endpoint, sample rate) narrowed to what a single-process sidecar
// needs — no Lambda/X-Ray specific fields.
type TracingConfig struct {
	ServiceName string
	Environment string
	Endpoint    string // OTLP/gRPC collector address, e.g. "localhost:4317"
	SampleRate  float64
}

// InitTracing starts an OTLP/gRPC batch span exporter and installs it
// as the global tracer provider, returning a request-scoped Tracer for
// the HTTP middleware plus a shutdown func the caller must run before
// exit to flush any buffered spans. Grounded on the teacher's
// InitTracing (exporter → resource → sampler → provider →
// otel.SetTracerProvider), dropped the Lambda-specific X-Ray
// propagator and sampling-by-environment table since Cortex runs as a
// plain sidecar process.
func InitTracing(ctx context.Context, cfg TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cortex"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = sampleRateFor(cfg.Environment)
	}

	var exporter *otlptrace.Exporter
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)

	tracer := tp.Tracer(cfg.ServiceName)
	return tracer, tp.Shutdown, nil
}

// sampleRateFor mirrors the teacher's environment-scaled sampling:
// trace everything outside production, thin it out once it matters
// for cost.
func sampleRateFor(environment string) float64 {
	if environment == "production" {
		return 0.1
	}
	return 1.0
}
