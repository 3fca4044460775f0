// Package propagation composes trace-context codecs for process boundaries.
// Extraction may consult several wire formats while injection always uses
// exactly one; the field union lets callers treat every tracing header as
// reserved (for example when building cache keys).
package propagation

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel/propagation"
)

// EnvVar names the environment variable holding the ordered propagator list.
const EnvVar = "OTEL_PROPAGATORS"

// None performs no context injection or extraction. It is selected with the
// "none" propagator name when propagation is explicitly disabled.
type None struct{}

// Inject implements propagation.TextMapPropagator.
func (None) Inject(context.Context, propagation.TextMapCarrier) {}

// Extract implements propagation.TextMapPropagator.
func (None) Extract(ctx context.Context, _ propagation.TextMapCarrier) context.Context {
	return ctx
}

// Fields implements propagation.TextMapPropagator.
func (None) Fields() []string { return nil }

// SplitPropagator uses different codecs for extraction and injection.
// Extraction composes several codecs; injection delegates to exactly one.
type SplitPropagator struct {
	extract propagation.TextMapPropagator
	inject  propagation.TextMapPropagator
	fields  []string
}

var _ propagation.TextMapPropagator = (*SplitPropagator)(nil)

// NewSplit builds a split propagator from an extract codec (usually a
// composite) and a single inject codec. The field set is computed once as
// the deduplicated union of both sides.
func NewSplit(extract, inject propagation.TextMapPropagator) *SplitPropagator {
	set := make(map[string]struct{})
	for _, f := range extract.Fields() {
		set[f] = struct{}{}
	}
	for _, f := range inject.Fields() {
		set[f] = struct{}{}
	}
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &SplitPropagator{extract: extract, inject: inject, fields: fields}
}

// Inject writes the trace context from ctx into the carrier using the single
// inject codec.
func (p *SplitPropagator) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	p.inject.Inject(ctx, carrier)
}

// Extract reads trace context from the carrier. Member codecs run in
// configuration order, so a later codec overwrites values set by an earlier
// one.
func (p *SplitPropagator) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return p.extract.Extract(ctx, carrier)
}

// Fields returns the union of every member codec's header names.
func (p *SplitPropagator) Fields() []string {
	return p.fields
}

// InjectHTTP writes the trace context from ctx into HTTP request headers.
func (p *SplitPropagator) InjectHTTP(ctx context.Context, header http.Header) {
	p.Inject(ctx, propagation.HeaderCarrier(header))
}

// ExtractHTTP reads trace context from HTTP request headers.
func (p *SplitPropagator) ExtractHTTP(ctx context.Context, header http.Header) context.Context {
	return p.Extract(ctx, propagation.HeaderCarrier(header))
}

// InjectMap writes the trace context from ctx into plain string headers,
// e.g. message-broker metadata.
func (p *SplitPropagator) InjectMap(ctx context.Context, headers map[string]string) {
	p.Inject(ctx, propagation.MapCarrier(headers))
}

// ExtractMap reads trace context from plain string headers.
func (p *SplitPropagator) ExtractMap(ctx context.Context, headers map[string]string) context.Context {
	return p.Extract(ctx, propagation.MapCarrier(headers))
}

// FromEnv builds a split propagator from the OTEL_PROPAGATORS environment
// variable. An unset or empty variable selects the default.
func FromEnv() (*SplitPropagator, error) {
	return Parse(os.Getenv(EnvVar))
}

// Parse builds a split propagator from a comma-separated list of propagator
// names. All named codecs extract, in order; the first named codec is also
// the sole inject codec. An empty list selects the default; an unknown name
// is a configuration error.
func Parse(list string) (*SplitPropagator, error) {
	var names []string
	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return Default(), nil
	}

	inject, err := byName(names[0])
	if err != nil {
		return nil, err
	}
	members := make([]propagation.TextMapPropagator, 0, len(names))
	for _, name := range names {
		member, err := byName(name)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return NewSplit(propagation.NewCompositeTextMapPropagator(members...), inject), nil
}

// Default injects W3C trace context and extracts both trace context and B3,
// so callers interoperate with zipkin-style peers without configuration.
func Default() *SplitPropagator {
	tc := propagation.TraceContext{}
	extract := propagation.NewCompositeTextMapPropagator(
		tc,
		b3.New(b3.WithInjectEncoding(b3.B3SingleHeader|b3.B3MultipleHeader)),
	)
	return NewSplit(extract, tc)
}

func byName(name string) (propagation.TextMapPropagator, error) {
	switch name {
	case "tracecontext":
		return propagation.TraceContext{}, nil
	case "baggage":
		return propagation.Baggage{}, nil
	case "b3":
		return b3.New(b3.WithInjectEncoding(b3.B3SingleHeader)), nil
	case "b3multi":
		return b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)), nil
	case "none":
		return None{}, nil
	}
	return nil, fmt.Errorf("unsupported propagator %q in %s", name, EnvVar)
}
