// Package telemetry sets up OpenTelemetry tracing for the album binaries. Gateway calls and
// fixture-server handlers start spans through Tracer whether or not a provider is installed.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Version is reported as service.version. Release builds set it with -ldflags -X.
var Version = "dev"

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// InitTracer installs the global tracer provider for service. Finished spans are written to
// w as JSON; with a nil w spans are still recorded, so correlation ids propagate, but
// nothing is exported. Calling it again replaces the previous provider.
func InitTracer(service string, w io.Writer) error {
	res, err := resource.Merge(
		resource.Default(),
		// no schema URL, so it merges with any SDK default
		resource.NewSchemaless(
			semconv.ServiceName(service),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return fmt.Errorf("tracing resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if w != nil {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return fmt.Errorf("span exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	mu.Lock()
	prev := provider
	provider = tp
	mu.Unlock()
	if prev != nil {
		_ = prev.Shutdown(context.Background())
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return nil
}

// Tracer returns a named tracer from the global provider. Before InitTracer it is a no-op.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// ShutdownTracer writes out pending spans and uninstalls the provider.
func ShutdownTracer(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
