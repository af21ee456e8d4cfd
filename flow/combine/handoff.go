package combine

import (
	"context"
	"sync"

	"github.com/lguimbarda/switchflow/flow/core"
)

// handoff is a single-consumer mailbox bridging concurrently running
// producers to one sequential consumer. Delivery is a rendezvous over an
// unbuffered channel, so a fast producer is backpressured by a slow
// consumer instead of buffering unboundedly. Termination (finish or fail)
// is idempotent: the first call wins and later calls are no-ops.
type handoff[T any] struct {
	items chan core.Result[T] // rendezvous; never closed

	mu      sync.Mutex
	done    chan struct{} // closed on finish/fail
	failure error         // set before done is closed when terminating with fail
}

func newHandoff[T any]() *handoff[T] {
	return &handoff[T]{
		items: make(chan core.Result[T]),
		done:  make(chan struct{}),
	}
}

// send delivers one result to the consumer. It blocks until the consumer
// receives the result, the handoff terminates, or ctx is cancelled, and
// reports whether the result was handed over.
func (h *handoff[T]) send(ctx context.Context, res core.Result[T]) bool {
	select {
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	case h.items <- res:
		return true
	}
}

// next blocks until a result is available or the handoff terminates.
// ok is false once the handoff has terminated; consult terminalError to
// distinguish finish from fail. A ctx error is returned only when the
// consumer itself was cancelled while waiting.
func (h *handoff[T]) next(ctx context.Context) (res core.Result[T], ok bool, err error) {
	// Prefer a pending terminal signal so that no element is ever
	// delivered after finish or fail has fired.
	select {
	case <-h.done:
		return res, false, nil
	default:
	}

	select {
	case <-ctx.Done():
		return res, false, ctx.Err()
	case <-h.done:
		return res, false, nil
	case res = <-h.items:
		return res, true, nil
	}
}

// finish terminates the handoff normally. Idempotent.
func (h *handoff[T]) finish() {
	h.terminate(nil)
}

// fail terminates the handoff with err. Idempotent; if the handoff has
// already terminated the error is dropped (first terminal signal wins).
func (h *handoff[T]) fail(err error) {
	h.terminate(err)
}

func (h *handoff[T]) terminate(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return
	default:
	}

	h.failure = err
	close(h.done)
}

// terminalError returns the failure the handoff terminated with, or nil
// after a normal finish. Only meaningful once next has reported ok=false.
func (h *handoff[T]) terminalError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failure
}
