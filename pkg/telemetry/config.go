package telemetry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Config.WithEnv. The traces-specific
// variants take precedence over the generic ones.
const (
	EnvEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTracesEndpoint = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvProtocol       = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvTracesProtocol = "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"
	EnvTimeout        = "OTEL_EXPORTER_OTLP_TIMEOUT"
	EnvTracesTimeout  = "OTEL_EXPORTER_OTLP_TRACES_TIMEOUT"
	EnvHeaders        = "OTEL_EXPORTER_OTLP_HEADERS"
	EnvTracesHeaders  = "OTEL_EXPORTER_OTLP_TRACES_HEADERS"
	EnvSampler        = "OTEL_TRACES_SAMPLER"
	EnvSamplerArg     = "OTEL_TRACES_SAMPLER_ARG"
	EnvPropagators    = "OTEL_PROPAGATORS"
	EnvLogLevel       = "OTEL_LOG_LEVEL"
)

// Config contains configuration for the telemetry bootstrap.
type Config struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// Protocol selects the export protocol: grpc, http or http/protobuf.
	// When empty it is inferred from the endpoint.
	Protocol string `yaml:"protocol"`

	// Timeout is the export timeout in milliseconds. It stays textual so a
	// malformed value surfaces as a startup error in Init.
	Timeout string `yaml:"timeout"`

	// Headers are additional headers sent with every export request.
	Headers map[string]string `yaml:"headers"`

	// Sampler names the sampling strategy; SamplerArg feeds ratio-based
	// samplers. Unknown names fall back to parentbased_always_on.
	Sampler    string `yaml:"sampler"`
	SamplerArg string `yaml:"sampler_arg"`

	// Propagators is the ordered, comma-separated propagator list.
	Propagators string `yaml:"propagators"`

	// LogLevel is the minimum log level name.
	LogLevel string `yaml:"log_level"`
}

// FromEnv returns a Config populated from the environment.
func FromEnv() Config {
	return Config{}.WithEnv()
}

// WithEnv overlays environment variables on c; set variables win over
// existing field values, so an env-aware caller loads a file first and
// applies the environment on top.
func (c Config) WithEnv() Config {
	if v := envOr("OTEL_SERVICE_NAME", "SERVICE_NAME", "APP_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := envOr("OTEL_SERVICE_VERSION", "SERVICE_VERSION", "APP_VERSION"); v != "" {
		c.ServiceVersion = v
	}
	if v := envOr(EnvTracesEndpoint, EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := envOr(EnvTracesProtocol, EnvProtocol); v != "" {
		c.Protocol = v
	}
	if v := envOr(EnvTracesTimeout, EnvTimeout); v != "" {
		c.Timeout = v
	}
	if headers := headersFromEnv(); len(headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.Headers[k] = v
		}
	}
	if v := os.Getenv(EnvSampler); v != "" {
		c.Sampler = v
	}
	if v := os.Getenv(EnvSamplerArg); v != "" {
		c.SamplerArg = v
	}
	if v := os.Getenv(EnvPropagators); v != "" {
		c.Propagators = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return c
}

// LoadConfigFile reads a YAML telemetry configuration.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read telemetry config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse telemetry config: %w", err)
	}
	return c, nil
}

func envOr(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// headersFromEnv merges the generic and traces-specific header lists, the
// traces-specific one winning per key.
func headersFromEnv() map[string]string {
	headers := parseHeaders(os.Getenv(EnvHeaders))
	for k, v := range parseHeaders(os.Getenv(EnvTracesHeaders)) {
		headers[k] = v
	}
	return headers
}

// parseHeaders turns "k1=v1,k2=v2" into a map, skipping malformed pairs.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}
