// Package observe provides typed observation of streams: context-attached
// hooks, counting and error-collecting helpers, and OpenTelemetry metric
// instrumentation. The hooks system is type-parameterized, so observers
// must be registered with the specific type they want to observe.
package observe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/switchflow/flow/core"
)

// WithValueHook attaches a value observation hook for type T to the context.
// The callback fires for each successful value emitted.
func WithValueHook[T any](ctx context.Context, callback func(T)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnValue: callback,
	})
}

// WithErrorHook attaches an error observation hook for type T to the context.
// The callback fires for each error encountered.
func WithErrorHook[T any](ctx context.Context, callback func(error)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnError: callback,
	})
}

// WithStartHook attaches a stream start hook for type T to the context.
// The callback fires when the stream starts processing.
func WithStartHook[T any](ctx context.Context, callback func()) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: callback,
	})
}

// WithCompleteHook attaches a stream completion hook for type T to the context.
// The callback fires when the stream completes, including on cancellation.
func WithCompleteHook[T any](ctx context.Context, callback func()) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnComplete: callback,
	})
}

// WithSentinelHook attaches a sentinel observation hook for type T to the context.
// The callback fires for each sentinel value encountered.
func WithSentinelHook[T any](ctx context.Context, callback func(error)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnSentinel: callback,
	})
}

// Counter provides thread-safe counting of values and errors.
type Counter struct {
	values atomic.Int64
	errors atomic.Int64
}

// Values returns the count of values processed.
func (c *Counter) Values() int64 { return c.values.Load() }

// Errors returns the count of errors encountered.
func (c *Counter) Errors() int64 { return c.errors.Load() }

// Total returns the total count of values and errors.
func (c *Counter) Total() int64 { return c.values.Load() + c.errors.Load() }

// WithCounter attaches counting hooks for type T and returns the counter for querying.
func WithCounter[T any](ctx context.Context) (context.Context, *Counter) {
	counter := &Counter{}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnValue: func(T) { counter.values.Add(1) },
		OnError: func(error) { counter.errors.Add(1) },
	})
	return ctx, counter
}

// ErrorCollector collects all errors encountered in streams.
type ErrorCollector struct {
	mu     sync.Mutex
	errors []error
}

// Errors returns a copy of all collected errors.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors returns true if any errors were collected.
func (c *ErrorCollector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

func (c *ErrorCollector) collect(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// WithErrorCollector attaches an error-collecting hook for type T and
// returns the collector for querying after the stream completes.
func WithErrorCollector[T any](ctx context.Context) (context.Context, *ErrorCollector) {
	collector := &ErrorCollector{}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnError: collector.collect,
	})
	return ctx, collector
}
