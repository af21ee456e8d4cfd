// Package combine provides combinators that build one stream out of
// several. This package contains the switch-latest family: combinators
// that derive a fresh inner stream from each element of an outer stream
// and emit from the most recently derived inner stream only, cancelling
// whatever inner stream was previously active.
//
// Switching is distinct from merging (emit from all inner streams
// concurrently) and from concatenation (run each inner stream to
// completion before starting the next); neither policy is provided here.
package combine

import (
	"context"
	"errors"
	"sync"

	"github.com/lguimbarda/switchflow/flow/core"
)

// SwitchMap creates a Transformer that derives a new inner stream from
// each upstream value and emits from the most recent inner stream only.
// When a new upstream value arrives, the previous inner stream is
// cancelled and the one produced by transform replaces it. When the
// upstream ends normally, the last inner stream runs to completion before
// the output closes.
//
// Unlike Map, errors are terminal for SwitchMap: the first error from the
// upstream, from transform, or from the active inner stream is emitted as
// a single error Result and the output closes immediately afterwards.
// Cancellation of a superseded inner stream is cooperative, not
// preemptive: an element already in flight when the switch happens may
// still be delivered, interleaved with the first elements of its
// replacement. The upstream, its values, transform, and the inner
// streams' values must be safe to share across goroutines.
//
// transform receives a context that is cancelled when the returned
// stream's consumer stops; a transform that blocks should honor it.
func SwitchMap[IN, OUT any](transform func(context.Context, IN) (core.Stream[OUT], error)) core.Transformer[IN, OUT] {
	return switchTransformer[IN, OUT]{transform: transform}
}

// SwitchAll flattens a stream of streams, emitting from the most recently
// produced inner stream only.
func SwitchAll[T any](outer core.Stream[core.Stream[T]]) core.Stream[T] {
	return SwitchMap(func(_ context.Context, inner core.Stream[T]) (core.Stream[T], error) {
		return inner, nil
	}).Apply(context.Background(), outer)
}

type switchTransformer[IN, OUT any] struct {
	transform func(context.Context, IN) (core.Stream[OUT], error)
}

// Apply ignores its context argument, like other Transformers built on
// closures; the context passed to Emit governs the whole pipeline.
func (st switchTransformer[IN, OUT]) Apply(_ context.Context, upstream core.Stream[IN]) core.Stream[OUT] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[OUT] {
		out := make(chan core.Result[OUT])

		// The drive context governs the upstream, the coordinator, and
		// every runner. Cancelling it is the single teardown signal; it
		// fires when the consumer's context ends or when the output loop
		// observes a terminal signal.
		driveCtx, driveCancel := context.WithCancel(ctx)

		h := newHandoff[OUT]()
		active := &slot[OUT]{}

		go coordinate(driveCtx, upstream.Emit(driveCtx), st.transform, active, h)

		// Output loop: the sequential consumer side of the handoff.
		go func() {
			defer close(out)
			defer driveCancel()

			hooks := core.HooksFrom[OUT](ctx)
			hooks.Start()
			defer hooks.Complete()

			for {
				res, ok, err := h.next(ctx)
				if err != nil {
					// Consumer cancelled while waiting; propagate by
					// closing, never by fabricating a value.
					return
				}
				if !ok {
					if failure := h.terminalError(); failure != nil {
						errRes := core.Err[OUT](failure)
						hooks.Observe(errRes)
						select {
						case <-ctx.Done():
						case out <- errRes:
						}
					}
					return
				}
				hooks.Observe(res)
				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}()

		return out
	})
}

// coordinate drives the upstream, owns the active-runner slot, and decides
// overall termination of the pipeline. It is the only goroutine that calls
// finish on the handoff; runners may only fail it.
func coordinate[IN, OUT any](
	ctx context.Context,
	in <-chan core.Result[IN],
	transform func(context.Context, IN) (core.Stream[OUT], error),
	active *slot[OUT],
	h *handoff[OUT],
) {
	for {
		select {
		case <-ctx.Done():
			if r := active.close(); r != nil {
				r.cancel()
			}
			h.finish()
			return

		case res, ok := <-in:
			if !ok || (res.IsSentinel() && errors.Is(res.Sentinel(), core.ErrEndOfStream)) {
				drain(ctx, active, h)
				return
			}

			if res.IsError() {
				// Upstream failure: report immediately, cancel the
				// current runner without waiting for it to quiesce.
				if r := active.close(); r != nil {
					r.cancel()
				}
				h.fail(res.Error())
				return
			}

			if res.IsSentinel() {
				// Control signals other than end-of-stream select no
				// new work and pass through to the consumer.
				if !h.send(ctx, core.Sentinel[OUT](res.Sentinel())) {
					return
				}
				continue
			}

			// Displace the current runner before deriving its
			// replacement; cancellation is cooperative and is not
			// waited on.
			if prev, ok := active.replace(nil); ok && prev != nil {
				prev.cancel()
			}

			inner, err := invokeTransform(ctx, transform, res.Value())
			if err != nil {
				if r := active.close(); r != nil {
					r.cancel()
				}
				h.fail(err)
				return
			}
			if inner == nil {
				continue
			}

			r := startRunner(ctx, inner, h)
			if _, ok := active.replace(r); !ok {
				// Slot closed while transform was running: shutdown won.
				r.cancel()
				return
			}
		}
	}
}

// drain handles normal upstream completion: the last derived stream is
// allowed to run to completion before the output ends.
func drain[OUT any](ctx context.Context, active *slot[OUT], h *handoff[OUT]) {
	r := active.close()
	if r != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			r.cancel()
		}
	}
	h.finish()
}

// invokeTransform calls the user transform with panic recovery; a panic
// is reported as an ErrPanic failure of the pipeline.
func invokeTransform[IN, OUT any](
	ctx context.Context,
	transform func(context.Context, IN) (core.Stream[OUT], error),
	value IN,
) (inner core.Stream[OUT], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			inner, err = nil, core.NewPanicError(rec)
		}
	}()
	return transform(ctx, value)
}

// slot holds the currently active runner. Replace-and-return-previous is
// a single critical section, so a displaced runner is cancelled exactly
// once and never observed as active by two paths. Once closed, nothing
// can be installed again.
type slot[T any] struct {
	mu     sync.Mutex
	cur    *runner[T]
	closed bool
}

// replace installs next (which may be nil) and returns the displaced
// runner. ok is false if the slot has been closed; the caller then owns
// next and must cancel it.
func (s *slot[T]) replace(next *runner[T]) (prev *runner[T], ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	prev = s.cur
	s.cur = next
	return prev, true
}

// close marks the slot closed and returns whatever runner was current.
func (s *slot[T]) close() *runner[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	prev := s.cur
	s.cur = nil
	return prev
}

// runner drains exactly one inner stream, forwarding each element to the
// handoff. It stops silently on cancellation and on normal end of the
// inner stream; only an inner failure is reported, and only via fail.
// Terminating the handoff normally belongs to the coordinator alone.
type runner[T any] struct {
	cancel context.CancelFunc
	done   chan struct{} // closed when the runner has fully stopped
}

func startRunner[T any](ctx context.Context, inner core.Stream[T], h *handoff[T]) *runner[T] {
	runCtx, cancel := context.WithCancel(ctx)
	r := &runner[T]{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		// Releases the inner stream's emit resources on every exit path.
		defer cancel()

		for res := range inner.Emit(runCtx) {
			// Cooperative cancellation check at the loop boundary. An
			// element produced past this point may still be delivered
			// after a newer runner has been installed.
			if runCtx.Err() != nil {
				return
			}

			if res.IsError() {
				// Inner failure is terminal for the whole pipeline.
				h.fail(res.Error())
				return
			}
			if res.IsSentinel() && errors.Is(res.Sentinel(), core.ErrEndOfStream) {
				return
			}

			if !h.send(runCtx, res) {
				return
			}
		}
	}()

	return r
}
