package core

import (
	"context"
)

// DefaultBufferSize is the default buffer size for internal channels.
// A small buffer reduces goroutine synchronization overhead without
// consuming excessive memory.
const DefaultBufferSize = 64

// TransformConfig holds configuration options for transform operations.
type TransformConfig struct {
	BufferSize int
}

// TransformOption is a functional option for configuring transforms.
type TransformOption func(*TransformConfig)

// WithBufferSize sets the buffer size for the transform's output channel.
// A larger buffer can improve throughput for CPU-bound operations by reducing
// goroutine synchronization, while a smaller buffer reduces memory usage.
// Use 0 for unbuffered (synchronous) operation.
func WithBufferSize(size int) TransformOption {
	return func(c *TransformConfig) {
		c.BufferSize = size
	}
}

// defaultConfig returns a TransformConfig with default values.
func defaultConfig() TransformConfig {
	return TransformConfig{
		BufferSize: DefaultBufferSize,
	}
}

// applyOptions applies functional options to a config.
func applyOptions(opts ...TransformOption) TransformConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Mapper defines a function that maps a Result of type IN to a Result of
// type OUT. It represents a transformation that maintains the cardinality of
// the flow (one input item produces one output item). Compare FlatMapper
// (one item to many) and combine.SwitchMap (one item to a whole stream).
type Mapper[IN, OUT any] func(Result[IN]) (Result[OUT], error)

// Map creates a Mapper from a transformation function. Errors returned by
// the function become error Results and the stream keeps processing; a panic
// in the function is recovered into an ErrPanic Result.
func Map[IN, OUT any](mapFunc func(IN) (OUT, error)) Mapper[IN, OUT] {
	return func(res Result[IN]) (out Result[OUT], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = NewPanicError(r)
			}
		}()

		if res.IsError() {
			return Err[OUT](res.Error()), nil
		}
		if res.IsSentinel() {
			return Sentinel[OUT](res.Sentinel()), nil
		}
		mappedValue, err := mapFunc(res.Value())
		if err != nil {
			return Err[OUT](err), nil
		}
		return Ok(mappedValue), nil
	}
}

// Apply transforms a stream using this Mapper with default configuration.
func (m Mapper[IN, OUT]) Apply(ctx context.Context, s Stream[IN]) Stream[OUT] {
	return m.ApplyWith(ctx, s)
}

// ApplyWith transforms a stream using this Mapper with custom options.
// Hooks registered for OUT in the emit context are invoked as results flow.
func (m Mapper[IN, OUT]) ApplyWith(ctx context.Context, s Stream[IN], opts ...TransformOption) Stream[OUT] {
	cfg := applyOptions(opts...)
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		outChan := make(chan Result[OUT], cfg.BufferSize)
		go func() {
			defer close(outChan)

			hooks := HooksFrom[OUT](ctx)
			hooks.Start()
			defer hooks.Complete()

			for resIn := range s.Emit(ctx) {
				resOut, err := m(resIn)
				if err != nil {
					resOut = Err[OUT](err)
				}
				hooks.Observe(resOut)
				select {
				case <-ctx.Done():
					return
				case outChan <- resOut:
				}
			}
		}()
		return outChan
	})
}

// FlatMapper defines a function that maps a Result of type IN to a slice of
// Results of type OUT. It represents a transformation that can change the
// cardinality of the flow (one input item can produce zero or more output items).
type FlatMapper[IN, OUT any] func(Result[IN]) ([]Result[OUT], error)

// FlatMap creates a FlatMapper from a transformation function returning a slice.
func FlatMap[IN, OUT any](flatMapFunc func(IN) ([]OUT, error)) FlatMapper[IN, OUT] {
	return func(res Result[IN]) (outs []Result[OUT], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = NewPanicError(r)
			}
		}()

		if res.IsError() {
			return []Result[OUT]{Err[OUT](res.Error())}, nil
		}
		if res.IsSentinel() {
			return []Result[OUT]{Sentinel[OUT](res.Sentinel())}, nil
		}
		mappedValues, err := flatMapFunc(res.Value())
		if err != nil {
			return []Result[OUT]{Err[OUT](err)}, nil
		}
		results := make([]Result[OUT], len(mappedValues))
		for i, v := range mappedValues {
			results[i] = Ok(v)
		}
		return results, nil
	}
}

// Apply transforms a stream using this FlatMapper with default configuration.
func (fm FlatMapper[IN, OUT]) Apply(ctx context.Context, s Stream[IN]) Stream[OUT] {
	return fm.ApplyWith(ctx, s)
}

// ApplyWith transforms a stream using this FlatMapper with custom options.
func (fm FlatMapper[IN, OUT]) ApplyWith(ctx context.Context, s Stream[IN], opts ...TransformOption) Stream[OUT] {
	cfg := applyOptions(opts...)
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		outChan := make(chan Result[OUT], cfg.BufferSize)
		go func() {
			defer close(outChan)

			hooks := HooksFrom[OUT](ctx)
			hooks.Start()
			defer hooks.Complete()

			for resIn := range s.Emit(ctx) {
				resOuts, err := fm(resIn)
				if err != nil {
					resOuts = []Result[OUT]{Err[OUT](err)}
				}
				for _, resOut := range resOuts {
					hooks.Observe(resOut)
					select {
					case <-ctx.Done():
						return
					case outChan <- resOut:
					}
				}
			}
		}()
		return outChan
	})
}
