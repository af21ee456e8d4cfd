package flow

import (
	"context"
	"iter"
	"time"

	"github.com/lguimbarda/switchflow/flow/core"
)

// FromSlice creates a Stream that emits each element from the given slice.
// The stream completes after all elements have been emitted.
// Uses buffered channels to reduce goroutine synchronization overhead.
func FromSlice[T any](items []T) Stream[T] {
	const maxBufferSize = 512

	return Emit(func(ctx context.Context) <-chan Result[T] {
		// For small slices, use a fully-buffered channel (no goroutine needed)
		if len(items) <= maxBufferSize {
			out := make(chan Result[T], len(items))
			for _, item := range items {
				out <- Ok(item)
			}
			close(out)
			return out
		}

		// For larger slices, use a buffered channel with a goroutine
		out := make(chan Result[T], maxBufferSize)
		go func() {
			defer close(out)
			for _, item := range items {
				select {
				case <-ctx.Done():
					return
				case out <- Ok(item):
				}
			}
		}()
		return out
	})
}

// FromChannel creates a Stream that emits values received from the given channel.
// The stream completes when the input channel is closed.
// The caller is responsible for closing the input channel.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-ch:
					if !ok {
						return
					}
					select {
					case <-ctx.Done():
						return
					case out <- Ok(item):
					}
				}
			}
		}()
		return out
	})
}

// FromResultChannel creates a Stream that relays Results received from the
// given channel, completing when the channel is closed. It allows a test or
// an external producer to drive errors and sentinels explicitly.
func FromResultChannel[T any](ch <-chan Result[T]) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case res, ok := <-ch:
					if !ok {
						return
					}
					select {
					case <-ctx.Done():
						return
					case out <- res:
					}
				}
			}
		}()
		return out
	})
}

// FromIter creates a Stream from a Go 1.23+ iterator sequence.
// The stream completes when the iterator is exhausted.
func FromIter[T any](seq iter.Seq[T]) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			for item := range seq {
				select {
				case <-ctx.Done():
					return
				case out <- Ok(item):
				}
			}
		}()
		return out
	})
}

// Empty creates a Stream that emits no values and completes immediately.
func Empty[T any]() Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		close(out)
		return out
	})
}

// Once creates a Stream that emits a single value and then completes.
func Once[T any](value T) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			select {
			case <-ctx.Done():
				return
			case out <- Ok(value):
			}
		}()
		return out
	})
}

// FromError creates a Stream that immediately emits an error and completes.
func FromError[T any](err error) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			select {
			case <-ctx.Done():
			case out <- core.Err[T](err):
			}
		}()
		return out
	})
}

// Never creates a Stream that never emits any values and never completes.
// The stream only terminates when the context is cancelled.
func Never[T any]() Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			<-ctx.Done()
		}()
		return out
	})
}

// Defer creates a Stream lazily, calling the factory function each time
// the stream is subscribed to. This allows for late binding of stream creation.
func Defer[T any](factory func() Stream[T]) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		stream := factory()
		return stream.Emit(ctx)
	})
}

// Generate creates a Stream that lazily generates values using the provided
// function. The function should return the next value and true to continue,
// or the zero value and false to signal completion. If the function returns
// an error, it is emitted as an error Result and the stream continues.
func Generate[T any](fn func() (T, bool, error)) Stream[T] {
	return Emit(func(ctx context.Context) <-chan Result[T] {
		out := make(chan Result[T])
		go func() {
			defer close(out)
			for {
				value, ok, err := fn()
				if err != nil {
					select {
					case <-ctx.Done():
						return
					case out <- core.Err[T](err):
					}
					continue
				}
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case out <- Ok(value):
				}
			}
		}()
		return out
	})
}

// Range creates a Stream that emits integers from start (inclusive) to end (exclusive).
// If start >= end, an empty stream is returned.
func Range(start, end int) Stream[int] {
	return Emit(func(ctx context.Context) <-chan Result[int] {
		out := make(chan Result[int])
		go func() {
			defer close(out)
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return
				case out <- Ok(i):
				}
			}
		}()
		return out
	})
}

// Timer creates a Stream that emits a single value after the specified delay.
// The value emitted is the current time when the timer fires.
func Timer(delay time.Duration) Stream[time.Time] {
	return Emit(func(ctx context.Context) <-chan Result[time.Time] {
		out := make(chan Result[time.Time])
		go func() {
			defer close(out)
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case t := <-timer.C:
				select {
				case <-ctx.Done():
					return
				case out <- Ok(t):
				}
			}
		}()
		return out
	})
}

// Interval creates a Stream that emits sequential integers at the specified
// interval, starting with 0 after the first period has elapsed. The stream
// continues indefinitely until context cancellation.
func Interval(period time.Duration) Stream[int] {
	return Emit(func(ctx context.Context) <-chan Result[int] {
		out := make(chan Result[int])
		go func() {
			defer close(out)

			ticker := time.NewTicker(period)
			defer ticker.Stop()

			count := 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case <-ctx.Done():
						return
					case out <- Ok(count):
						count++
					}
				}
			}
		}()
		return out
	})
}
