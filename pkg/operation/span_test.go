package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/run-bigpig/telemetry-go/pkg/spanstack"
)

func newTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider.Tracer("test")
}

func TestBuilderNameAndKind(t *testing.T) {
	recorder, tracer := newTestTracer()

	_, span := Producer(tracer, "Queue", "Publish").Start(context.Background())
	span.End(nil, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "Queue.Publish", ended[0].Name())
	assert.Equal(t, trace.SpanKindProducer, ended[0].SpanKind())
}

func TestBuilderAttributesKeepInsertionOrder(t *testing.T) {
	_, tracer := newTestTracer()

	b := Client(tracer, "Ledger", "Query").
		Attributes(attribute.String("db.table", "entries")).
		Stream().
		Attributes(attribute.Int("page.size", 50))

	assert.Equal(t,
		`{"rpc.service":"Ledger","rpc.method":"Query","db.table":"entries",`+
			`"rpc.pagination_stream":true,"page.size":50}`,
		fragment(b.attrs))
}

func TestStartPushesSpanScopeEntry(t *testing.T) {
	_, tracer := newTestTracer()

	ctx, span := Client(tracer, "Ledger", "Query").Start(context.Background())
	defer span.End(nil, nil)

	entry, ok := spanstack.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "Ledger.Query", entry.Name)
	assert.Contains(t, entry.Fields, `"rpc.service":"Ledger"`)

	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid(), "returned context must carry the span")
}

func TestContextOverrideSetsParent(t *testing.T) {
	recorder, tracer := newTestTracer()

	parentCtx, parent := Server(tracer, "API", "Handle").Start(context.Background())

	_, child := Client(tracer, "Ledger", "Query").
		Context(parentCtx).
		Start(context.Background())
	child.End(nil, nil)
	parent.End(nil, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

type requestIDError struct {
	id string
}

func (e *requestIDError) Error() string     { return "backend failure" }
func (e *requestIDError) RequestID() string { return e.id }

func TestEndRecordsErrorStatusAndRequestID(t *testing.T) {
	recorder, tracer := newTestTracer()

	_, span := Client(tracer, "Ledger", "Query").Start(context.Background())
	span.End(nil, &requestIDError{id: "req-789"})

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "backend failure", ended[0].Status().Description)
	require.NotEmpty(t, ended[0].Events(), "the error itself is recorded")

	var requestID string
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == AttrRequestID {
			requestID = kv.Value.AsString()
		}
	}
	assert.Equal(t, "req-789", requestID)
}

func TestEndRecordsOkStatus(t *testing.T) {
	recorder, tracer := newTestTracer()

	_, span := Client(tracer, "Ledger", "Query").Start(context.Background())
	span.End("plain result", nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
}

func TestFragmentEmptyAttributes(t *testing.T) {
	assert.Equal(t, "{}", fragment(nil))
}

func TestEndWrappedErrorWithoutRequestID(t *testing.T) {
	recorder, tracer := newTestTracer()

	_, span := Client(tracer, "Ledger", "Query").Start(context.Background())
	span.End(nil, errors.New("plain"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	for _, kv := range ended[0].Attributes() {
		assert.NotEqual(t, AttrRequestID, string(kv.Key))
	}
}
