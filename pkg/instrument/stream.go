package instrument

import (
	"context"
	"errors"
	"io"

	"github.com/run-bigpig/telemetry-go/pkg/operation"
)

// Stream is a caller-driven asynchronous sequence. Next returns io.EOF when
// the sequence is exhausted; any other error terminates it.
type Stream[T any] interface {
	Next(ctx context.Context) (T, error)
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc[T any] func(ctx context.Context) (T, error)

// Next implements Stream.
func (s StreamFunc[T]) Next(ctx context.Context) (T, error) {
	return s(ctx)
}

// streamState tags which phase of its lifecycle an InstrumentedStream is in.
// stateInvalid is the zero value so a state left empty mid-pull is caught.
type streamState int

const (
	stateInvalid streamState = iota
	stateWaiting
	stateFlowing
	stateFinished
)

// InstrumentedStream brackets a whole sequence with one span. The span
// starts lazily on the first pull, binding to that call's context, and
// closes exactly once on either exhaustion or the first error. Pulling after
// the terminal state keeps returning io.EOF with no side effects.
type InstrumentedStream[T any] struct {
	inner   Stream[T]
	builder *operation.SpanBuilder
	span    *operation.Span
	state   streamState
}

// NewStream wraps inner with builder's span. The streaming marker attribute
// is attached before start so exported telemetry can tell the span apart
// from single-shot ones.
func NewStream[T any](inner Stream[T], builder *operation.SpanBuilder) *InstrumentedStream[T] {
	return &InstrumentedStream[T]{
		inner:   inner,
		builder: builder.Stream(),
		state:   stateWaiting,
	}
}

// Next pulls the next item. The state is taken and replaced around the inner
// pull; observing the transient invalid state here means a caller broke the
// single-puller contract, which is not recoverable.
func (s *InstrumentedStream[T]) Next(ctx context.Context) (T, error) {
	state := s.state
	s.state = stateInvalid

	switch state {
	case stateWaiting:
		_, span := s.builder.Start(ctx)
		s.builder = nil
		s.span = span
		return s.flow(ctx)
	case stateFlowing:
		return s.flow(ctx)
	case stateFinished:
		s.state = stateFinished
		var zero T
		return zero, io.EOF
	default:
		panic("instrument: invalid stream state")
	}
}

// flow delegates one pull to the inner sequence while the span is open.
func (s *InstrumentedStream[T]) flow(ctx context.Context) (T, error) {
	item, err := s.inner.Next(ctx)
	switch {
	case err == nil:
		s.state = stateFlowing
		return item, nil
	case errors.Is(err, io.EOF):
		// Plain exhaustion closes the span as a success with no result
		// value, mirroring single-shot operations.
		s.span.End(nil, nil)
		s.span = nil
		s.state = stateFinished
		var zero T
		return zero, io.EOF
	default:
		// First error closes the span; the error is still delivered.
		s.span.End(nil, err)
		s.span = nil
		s.state = stateFinished
		return item, err
	}
}
