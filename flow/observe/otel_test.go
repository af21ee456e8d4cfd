package observe_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/lguimbarda/switchflow/flow"
	"github.com/lguimbarda/switchflow/flow/combine"
	"github.com/lguimbarda/switchflow/flow/observe"
)

// Instrument a switch-latest pipeline against a no-op meter provider: the
// instruments must be created without error and the hooks must not
// disturb the stream's output.
func TestInstrumentSwitchPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	meter := noop.NewMeterProvider().Meter("switchflow/observe")

	ctx, err := observe.Instrument[int](ctx, meter, "switch")
	if err != nil {
		t.Fatalf("Instrument: %v", err)
	}

	// Count alongside otel to verify the hooks actually fired.
	ctx, counter := observe.WithCounter[int](ctx)

	switched := combine.SwitchMap(func(_ context.Context, s string) (flow.Stream[int], error) {
		return flow.FromSlice([]int{1, 2, 3}), nil
	}).Apply(ctx, flow.FromSlice([]string{"only"}))

	got, err := flow.Slice(ctx, switched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 values", got)
	}
	if counter.Values() != 3 {
		t.Errorf("hooks fired %d times, want 3", counter.Values())
	}
}
