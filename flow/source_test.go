package flow_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/lguimbarda/switchflow/flow"
)

func TestFromSlice(t *testing.T) {
	tests := []struct {
		name  string
		items []int
	}{
		{"empty", nil},
		{"small", []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Slice(context.Background(), flow.FromSlice(tt.items))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.items) {
				t.Errorf("got %v, want %v", got, tt.items)
			}
		})
	}
}

func TestFromSliceLarge(t *testing.T) {
	items := make([]int, 2048) // past the fully-buffered fast path
	for i := range items {
		items[i] = i
	}

	got, err := flow.Slice(context.Background(), flow.FromSlice(items))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, items) {
		t.Errorf("got %d items, want %d in order", len(got), len(items))
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int)
	go func() {
		defer close(ch)
		for i := 1; i <= 3; i++ {
			ch <- i
		}
	}()

	got, err := flow.Slice(context.Background(), flow.FromChannel(ch))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFromResultChannel(t *testing.T) {
	boom := errors.New("boom")

	ch := make(chan flow.Result[int], 2)
	ch <- flow.Ok(1)
	ch <- flow.Err[int](boom)
	close(ch)

	results := flow.Collect(context.Background(), flow.FromResultChannel(ch))
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[1].IsError() || !errors.Is(results[1].Error(), boom) {
		t.Errorf("second result = %+v, want error %v", results[1], boom)
	}
}

func TestFromIter(t *testing.T) {
	got, err := flow.Slice(context.Background(), flow.FromIter(slices.Values([]int{5, 6})))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{5, 6}) {
		t.Errorf("got %v, want [5 6]", got)
	}
}

func TestEmptyAndOnce(t *testing.T) {
	ctx := context.Background()

	got, err := flow.Slice(ctx, flow.Empty[int]())
	if err != nil || len(got) != 0 {
		t.Errorf("Empty: got %v, %v", got, err)
	}

	got, err = flow.Slice(ctx, flow.Once(42))
	if err != nil || !slices.Equal(got, []int{42}) {
		t.Errorf("Once: got %v, %v", got, err)
	}
}

func TestFromError(t *testing.T) {
	boom := errors.New("boom")
	_, err := flow.Slice(context.Background(), flow.FromError[int](boom))
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestNeverStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	out := flow.Never[int]().Emit(ctx)
	cancel()

	select {
	case res, ok := <-out:
		if ok {
			t.Errorf("Never emitted %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Never did not stop after cancellation")
	}
}

func TestDeferLateBinding(t *testing.T) {
	built := 0
	stream := flow.Defer(func() flow.Stream[int] {
		built++
		return flow.FromSlice([]int{built})
	})

	if built != 0 {
		t.Fatal("factory ran before subscription")
	}

	ctx := context.Background()
	first, _ := flow.Slice(ctx, stream)
	second, _ := flow.Slice(ctx, stream)

	if !slices.Equal(first, []int{1}) || !slices.Equal(second, []int{2}) {
		t.Errorf("got %v then %v, want [1] then [2]", first, second)
	}
}

func TestGenerate(t *testing.T) {
	n := 0
	stream := flow.Generate(func() (int, bool, error) {
		n++
		if n > 3 {
			return 0, false, nil
		}
		return n, true, nil
	})

	got, err := flow.Slice(context.Background(), stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestRange(t *testing.T) {
	got, err := flow.Slice(context.Background(), flow.Range(2, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{2, 3, 4}) {
		t.Errorf("got %v, want [2 3 4]", got)
	}
}

func TestInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := flow.Interval(time.Millisecond).Emit(ctx)

	for want := 0; want < 3; want++ {
		select {
		case res := <-out:
			if res.Value() != want {
				t.Fatalf("got %d, want %d", res.Value(), want)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for interval tick")
		}
	}
}
