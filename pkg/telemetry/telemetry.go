// Package telemetry wires the OTLP exporter, sampler, resource, propagator
// and logger into a single owned handle. Nothing is registered globally:
// Init returns the handle, and call sites receive the tracer and propagator
// through their constructors.
package telemetry

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/run-bigpig/telemetry-go/pkg/logging"
	"github.com/run-bigpig/telemetry-go/pkg/propagation"
)

// Telemetry owns the tracer provider, propagator and logger for one process.
// Keep it alive for the duration of the application and call Shutdown on
// exit.
type Telemetry struct {
	provider   *sdktrace.TracerProvider
	propagator *propagation.SplitPropagator
	logger     *logging.ZeroLogger
}

// Init builds the telemetry stack from cfg. Configuration errors (unknown
// protocol, malformed timeout, unknown propagator name) fail startup here
// and are never retried.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	export, err := inferExportConfig(cfg.Protocol, cfg.Endpoint, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	propagator, err := propagation.Parse(cfg.Propagators)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx, export, cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := detectResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFromConfig(cfg.Sampler, cfg.SamplerArg)),
	)

	logger := logging.New(logging.WithLevel(cfg.LogLevel))

	t := &Telemetry{
		provider:   provider,
		propagator: propagator,
		logger:     logger,
	}
	logger.ForTarget("otel::setup").Info(ctx, "telemetry initialized", map[string]interface{}{
		"service":  cfg.ServiceName,
		"protocol": export.protocol,
		"endpoint": export.endpoint,
	})
	return t, nil
}

// Tracer returns a named tracer from the owned provider.
func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.provider.Tracer(name)
}

// Propagator returns the composed trace-context propagator.
func (t *Telemetry) Propagator() *propagation.SplitPropagator {
	return t.propagator
}

// Logger returns the process logger with the tracing hook installed.
func (t *Telemetry) Logger() *logging.ZeroLogger {
	return t.logger
}

// ForceFlush exports any spans still buffered in the batch processor.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	return t.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
