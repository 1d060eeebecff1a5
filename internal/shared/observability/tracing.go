package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracer resolves against the global provider, so spans are no-ops until
// SetupTracing installs a real one.
var Tracer = otel.Tracer("exportfix")

// SetupTracing installs an OTLP/gRPC trace pipeline and returns a shutdown
// function that flushes pending spans.
func SetupTracing(ctx context.Context, endpoint string, insecure bool) (func(context.Context) error, error) {
	opts := make([]otlptracegrpc.Option, 0, 2)
	if endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
	}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "exportfix"),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
