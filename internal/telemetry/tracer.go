// Package telemetry sets up OpenTelemetry tracing for the site service.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options configure the tracer provider.
type Options struct {
	ServiceName string
	Version     string
	Env         string    // Recorded as deployment.environment
	Writer      io.Writer // Span sink; stdout when nil
	Pretty      bool      // Indent exported spans
}

// Tracing owns the installed provider.
type Tracing struct {
	tp *sdktrace.TracerProvider
}

// Init installs a global tracer provider exporting to opts.Writer and the W3C
// trace-context propagator.
func Init(opts Options) (*Tracing, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if opts.Pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(opts.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Tracing{tp: tp}, nil
}

// Shutdown flushes pending spans. It is safe to call on a nil receiver.
func (t *Tracing) Shutdown(ctx context.Context) {
	if t == nil || t.tp == nil {
		return
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
}
