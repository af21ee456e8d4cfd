package combine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lguimbarda/switchflow/flow/core"
)

func TestHandoffSendNext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := newHandoff[int]()

	go func() {
		for i := 1; i <= 3; i++ {
			if !h.send(ctx, core.Ok(i)) {
				return
			}
		}
		h.finish()
	}()

	var got []int
	for {
		res, ok, err := h.next(ctx)
		if err != nil {
			t.Fatalf("unexpected consumer error: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, res.Value())
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if h.terminalError() != nil {
		t.Errorf("expected normal finish, got %v", h.terminalError())
	}
}

func TestHandoffSendBlocksUntilReceived(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := newHandoff[int]()
	sent := make(chan struct{})

	go func() {
		h.send(ctx, core.Ok(42))
		close(sent)
	}()

	// The producer must not complete before the consumer pulls.
	select {
	case <-sent:
		t.Fatal("send completed without a consumer")
	case <-time.After(50 * time.Millisecond):
	}

	res, ok, err := h.next(ctx)
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if res.Value() != 42 {
		t.Errorf("got %d, want 42", res.Value())
	}

	select {
	case <-sent:
	case <-ctx.Done():
		t.Fatal("send did not complete after the consumer pulled")
	}
}

func TestHandoffTerminalIdempotence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	boom := errors.New("boom")
	later := errors.New("later")

	tests := []struct {
		name      string
		terminate func(h *handoff[int])
		wantErr   error
	}{
		{
			name: "finish then finish",
			terminate: func(h *handoff[int]) {
				h.finish()
				h.finish()
			},
			wantErr: nil,
		},
		{
			name: "fail then fail keeps first error",
			terminate: func(h *handoff[int]) {
				h.fail(boom)
				h.fail(later)
			},
			wantErr: boom,
		},
		{
			name: "fail then finish stays failed",
			terminate: func(h *handoff[int]) {
				h.fail(boom)
				h.finish()
			},
			wantErr: boom,
		},
		{
			name: "finish then fail stays finished",
			terminate: func(h *handoff[int]) {
				h.finish()
				h.fail(boom)
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandoff[int]()
			tt.terminate(h)

			// The terminal state must be stable across repeated reads.
			for i := 0; i < 2; i++ {
				_, ok, err := h.next(ctx)
				if err != nil {
					t.Fatalf("unexpected consumer error: %v", err)
				}
				if ok {
					t.Fatal("expected terminal signal, got a value")
				}
				if h.terminalError() != tt.wantErr {
					t.Errorf("terminalError = %v, want %v", h.terminalError(), tt.wantErr)
				}
			}
		})
	}
}

func TestHandoffNoDeliveryAfterTerminal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := newHandoff[int]()

	// A producer is parked mid-send when the terminal signal fires.
	unblocked := make(chan struct{})
	go func() {
		h.send(ctx, core.Ok(7))
		close(unblocked)
	}()

	time.Sleep(20 * time.Millisecond) // let the producer park
	h.finish()

	// The parked send must unblock without delivering.
	select {
	case <-unblocked:
	case <-ctx.Done():
		t.Fatal("send did not unblock after finish")
	}

	if _, ok, _ := h.next(ctx); ok {
		t.Fatal("element delivered after finish")
	}
}

func TestHandoffConsumerCancellation(t *testing.T) {
	h := newHandoff[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := h.next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("next error = %v, want context.Canceled", err)
	}
	if h.send(ctx, core.Ok(1)) {
		t.Error("send succeeded with a cancelled context and no consumer")
	}
}
