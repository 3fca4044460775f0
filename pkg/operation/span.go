// Package operation provides span builders and handles for instrumenting
// remote operations. A builder configures name, kind and attributes; starting
// it yields exactly one handle that must be ended with the operation result.
package operation

import (
	"context"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/run-bigpig/telemetry-go/pkg/spanstack"
)

const (
	// AttrRequestID records the backend-assigned request identifier.
	AttrRequestID = "rpc.request_id"

	// AttrPaginationStream marks spans that bracket a multi-item stream
	// rather than a single request.
	AttrPaginationStream = "rpc.pagination_stream"

	attrRPCService = "rpc.service"
	attrRPCMethod  = "rpc.method"
)

// RequestIDer is implemented by operation results and errors that expose a
// backend request identifier.
type RequestIDer interface {
	RequestID() string
}

// SpanBuilder configures a span before it is started. A builder may be
// started at most once; starting it twice is a programmer error.
type SpanBuilder struct {
	tracer trace.Tracer
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	parent context.Context
}

func newBuilder(tracer trace.Tracer, kind trace.SpanKind, service, method string, attrs []attribute.KeyValue) *SpanBuilder {
	base := []attribute.KeyValue{
		attribute.String(attrRPCService, service),
		attribute.String(attrRPCMethod, method),
	}
	return &SpanBuilder{
		tracer: tracer,
		name:   service + "." + method,
		kind:   kind,
		attrs:  append(base, attrs...),
	}
}

// Client creates a builder for an outbound call to a remote service.
func Client(tracer trace.Tracer, service, method string, attrs ...attribute.KeyValue) *SpanBuilder {
	return newBuilder(tracer, trace.SpanKindClient, service, method, attrs)
}

// Server creates a builder for handling an inbound request.
func Server(tracer trace.Tracer, service, method string, attrs ...attribute.KeyValue) *SpanBuilder {
	return newBuilder(tracer, trace.SpanKindServer, service, method, attrs)
}

// Producer creates a builder for an operation that publishes messages.
func Producer(tracer trace.Tracer, service, method string, attrs ...attribute.KeyValue) *SpanBuilder {
	return newBuilder(tracer, trace.SpanKindProducer, service, method, attrs)
}

// Consumer creates a builder for an operation that receives messages.
func Consumer(tracer trace.Tracer, service, method string, attrs ...attribute.KeyValue) *SpanBuilder {
	return newBuilder(tracer, trace.SpanKindConsumer, service, method, attrs)
}

// Attributes appends custom attributes. Insertion order is preserved and
// duplicate keys are kept.
func (b *SpanBuilder) Attributes(attrs ...attribute.KeyValue) *SpanBuilder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// Context overrides the parent context the span will be bound to at start.
func (b *SpanBuilder) Context(ctx context.Context) *SpanBuilder {
	b.parent = ctx
	return b
}

// Stream marks the span as bracketing a paginated stream. The marker is
// attached before start so exported telemetry can tell streaming spans from
// single-shot ones.
func (b *SpanBuilder) Stream() *SpanBuilder {
	return b.Attributes(attribute.Bool(AttrPaginationStream, true))
}

// Name returns the span name the builder will start with.
func (b *SpanBuilder) Name() string {
	return b.name
}

// Start begins the span under ctx (or the builder's parent override) and
// records it on the ambient span scope. The returned context carries the new
// span; the handle must be ended exactly once.
func (b *SpanBuilder) Start(ctx context.Context) (context.Context, *Span) {
	if b.parent != nil {
		ctx = b.parent
	}
	ctx, span := b.tracer.Start(ctx, b.name,
		trace.WithSpanKind(b.kind),
		trace.WithAttributes(b.attrs...))
	ctx = spanstack.Push(ctx, spanstack.Entry{Name: b.name, Fields: fragment(b.attrs)})
	return ctx, &Span{span: span, ctx: ctx}
}

// Span is a handle to an active operation span.
type Span struct {
	span trace.Span
	ctx  context.Context
}

// Context returns the context carrying this span.
func (s *Span) Context() context.Context {
	return s.ctx
}

// SetAttributes adds attributes to the open span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// AddEvent adds a timed event to the open span.
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End closes the span with the operation outcome. On error the span records
// the error and an error status; otherwise the status is OK. A request
// identifier exposed by either side of the result is recorded as an
// attribute. The handle must not be used afterwards.
func (s *Span) End(result any, err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		if id, ok := requestID(err); ok {
			s.span.SetAttributes(attribute.String(AttrRequestID, id))
		}
	} else {
		s.span.SetStatus(codes.Ok, "")
		if id, ok := requestID(result); ok {
			s.span.SetAttributes(attribute.String(AttrRequestID, id))
		}
	}
	s.span.End()
}

func requestID(v any) (string, bool) {
	r, ok := v.(RequestIDer)
	if !ok {
		return "", false
	}
	id := r.RequestID()
	return id, id != ""
}

// fragment serializes the attribute list as a JSON object, preserving
// insertion order. The log serializer re-parses this when an event fires
// inside the span.
func fragment(attrs []attribute.KeyValue) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, kv := range attrs {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(string(kv.Key))
		b.Write(key)
		b.WriteByte(':')
		val, err := json.Marshal(kv.Value.AsInterface())
		if err != nil {
			val = []byte("null")
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}
