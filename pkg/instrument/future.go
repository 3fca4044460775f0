// Package instrument wraps caller-driven asynchronous computations so that a
// tracing span brackets their execution and closes exactly once. Wrappers add
// no goroutines or blocking of their own; every wait belongs to the wrapped
// computation, and each wrapper expects a single puller at a time.
package instrument

import (
	"context"

	"github.com/run-bigpig/telemetry-go/pkg/operation"
)

// Future is a single-result asynchronous computation driven by its caller.
// Await must be called at most once.
type Future[T any] interface {
	Await(ctx context.Context) (T, error)
}

// FutureFunc adapts a function to the Future interface.
type FutureFunc[T any] func(ctx context.Context) (T, error)

// Await implements Future.
func (f FutureFunc[T]) Await(ctx context.Context) (T, error) {
	return f(ctx)
}

// Hook receives a wrapped computation's outcome exactly once, immediately
// after the computation finishes. The hook observes the result but does not
// own it.
type Hook[T any] interface {
	OnResult(result T, err error)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc[T any] func(result T, err error)

// OnResult implements Hook.
func (h HookFunc[T]) OnResult(result T, err error) {
	h(result, err)
}

// SpanHook returns a hook that ends span with the computation's outcome.
func SpanHook[T any](span *operation.Span) Hook[T] {
	return HookFunc[T](func(result T, err error) {
		span.End(result, err)
	})
}

// InstrumentedFuture guarantees its hook fires exactly once, after the inner
// computation has been released. Awaiting it again after completion is a
// fatal contract violation.
type InstrumentedFuture[T any] struct {
	inner Future[T]
	hook  Hook[T]
	done  bool
}

// NewFuture wraps inner so that hook observes its outcome.
func NewFuture[T any](inner Future[T], hook Hook[T]) *InstrumentedFuture[T] {
	return &InstrumentedFuture[T]{inner: inner, hook: hook}
}

// WithSpan starts the builder's span immediately and arranges for it to end
// with the future's outcome.
func WithSpan[T any](ctx context.Context, inner Future[T], builder *operation.SpanBuilder) *InstrumentedFuture[T] {
	_, span := builder.Start(ctx)
	return NewFuture(inner, SpanHook[T](span))
}

// Await runs the inner computation to completion, then invokes the hook with
// the outcome and returns it unchanged. The inner computation is released
// before the hook runs, so a span it owns is closed before the hook observes
// final state. Calling Await after completion panics: a correct caller never
// re-awaits a finished future, and continuing would corrupt telemetry.
func (f *InstrumentedFuture[T]) Await(ctx context.Context) (T, error) {
	if f.done {
		panic("instrument: future awaited after completion")
	}
	inner, hook := f.inner, f.hook

	result, err := inner.Await(ctx)

	// Release the inner computation first: any span it owns must close
	// before the hook reads final state.
	f.inner, f.hook = nil, nil
	f.done = true
	hook.OnResult(result, err)
	return result, err
}
