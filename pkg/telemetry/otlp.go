package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	protocolGRPC = "grpc"
	protocolHTTP = "http/protobuf"
)

type exportConfig struct {
	protocol string
	endpoint string
	timeout  time.Duration
}

// inferExportConfig resolves the exporter settings. An unknown protocol or a
// malformed timeout is a configuration error. When no protocol is named, an
// endpoint on the conventional gRPC port selects grpc, everything else
// http/protobuf.
func inferExportConfig(protocol, endpoint, timeout string) (exportConfig, error) {
	cfg := exportConfig{endpoint: endpoint}

	switch protocol {
	case protocolGRPC:
		cfg.protocol = protocolGRPC
	case "http", protocolHTTP:
		cfg.protocol = protocolHTTP
	case "":
		if strings.Contains(endpoint, ":4317") {
			cfg.protocol = protocolGRPC
		} else {
			cfg.protocol = protocolHTTP
		}
	default:
		return exportConfig{}, fmt.Errorf("unsupported protocol %q", protocol)
	}

	if timeout != "" {
		millis, err := strconv.ParseUint(timeout, 10, 64)
		if err != nil {
			return exportConfig{}, fmt.Errorf("invalid timeout %q: %w", timeout, err)
		}
		cfg.timeout = time.Duration(millis) * time.Millisecond
	}
	return cfg, nil
}

// newExporter builds the OTLP span exporter for the resolved protocol.
func newExporter(ctx context.Context, cfg exportConfig, headers map[string]string) (*otlptrace.Exporter, error) {
	if cfg.protocol == protocolGRPC {
		var opts []otlptracegrpc.Option
		if cfg.endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.endpoint))
		}
		if cfg.timeout > 0 {
			opts = append(opts, otlptracegrpc.WithTimeout(cfg.timeout))
		}
		if len(headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(headers))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	}

	var opts []otlptracehttp.Option
	if cfg.endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.endpoint))
	}
	if cfg.timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(cfg.timeout))
	}
	if len(headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
}

// samplerFromConfig maps the sampler name to an SDK sampler. Unknown names
// fall back to parentbased_always_on rather than failing startup.
func samplerFromConfig(name, arg string) sdktrace.Sampler {
	ratio := 1.0
	if arg != "" {
		if v, err := strconv.ParseFloat(arg, 64); err == nil {
			ratio = v
		}
	}

	switch strings.ToLower(name) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}
