package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/switchflow/flow/core"
)

// Instrument attaches hooks for type T that report stream activity to
// OpenTelemetry instruments created from the given meter:
//
//   - <name>.values      (Int64Counter)   successful values
//   - <name>.errors      (Int64Counter)   errors
//   - <name>.latency_ms  (Int64Histogram) time between consecutive values
//
// The instrumented stream must be driven from a single goroutine, which
// holds for every operator in this library (hooks fire on the output loop).
func Instrument[T any](ctx context.Context, meter metric.Meter, name string) (context.Context, error) {
	values, err := meter.Int64Counter(name+".values",
		metric.WithDescription("count of values emitted"))
	if err != nil {
		return ctx, fmt.Errorf("create values counter: %w", err)
	}
	errors, err := meter.Int64Counter(name+".errors",
		metric.WithDescription("count of errors emitted"))
	if err != nil {
		return ctx, fmt.Errorf("create errors counter: %w", err)
	}
	latency, err := meter.Int64Histogram(name+".latency_ms",
		metric.WithDescription("milliseconds between consecutive values"))
	if err != nil {
		return ctx, fmt.Errorf("create latency histogram: %w", err)
	}

	// Hooks fire on the output loop, but a stream may be re-emitted, so
	// guard the last-value timestamp anyway.
	var mu sync.Mutex
	var last time.Time

	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnValue: func(T) {
			now := time.Now()
			mu.Lock()
			if !last.IsZero() {
				latency.Record(ctx, now.Sub(last).Milliseconds())
			}
			last = now
			mu.Unlock()
			values.Add(ctx, 1)
		},
		OnError: func(error) {
			errors.Add(ctx, 1)
		},
	})
	return ctx, nil
}
