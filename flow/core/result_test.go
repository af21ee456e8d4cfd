package core

import (
	"errors"
	"strings"
	"testing"
)

func TestResultStates(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		res        Result[int]
		isValue    bool
		isError    bool
		isSentinel bool
	}{
		{"value", Ok(42), true, false, false},
		{"error", Err[int](boom), false, true, false},
		{"sentinel", Sentinel[int](nil), false, false, true},
		{"end of stream", EndOfStream[int](), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.IsValue(); got != tt.isValue {
				t.Errorf("IsValue() = %v, want %v", got, tt.isValue)
			}
			if got := tt.res.IsError(); got != tt.isError {
				t.Errorf("IsError() = %v, want %v", got, tt.isError)
			}
			if got := tt.res.IsSentinel(); got != tt.isSentinel {
				t.Errorf("IsSentinel() = %v, want %v", got, tt.isSentinel)
			}
		})
	}
}

func TestResultAccessors(t *testing.T) {
	boom := errors.New("boom")

	if v := Ok(7).Value(); v != 7 {
		t.Errorf("Value() = %d, want 7", v)
	}
	if err := Err[int](boom).Error(); !errors.Is(err, boom) {
		t.Errorf("Error() = %v, want %v", err, boom)
	}
	if err := EndOfStream[int]().Error(); err != nil {
		t.Errorf("sentinel Error() = %v, want nil", err)
	}
	if err := EndOfStream[int]().Sentinel(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Sentinel() = %v, want ErrEndOfStream", err)
	}
	if err := Ok(1).Sentinel(); err != nil {
		t.Errorf("value Sentinel() = %v, want nil", err)
	}
}

func TestPanicErrorStack(t *testing.T) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = NewPanicError(r)
			}
		}()
		panic("kaboom")
	}()

	var panicErr ErrPanic
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected ErrPanic, got %T", err)
	}
	if panicErr.Value != "kaboom" {
		t.Errorf("Value = %v, want kaboom", panicErr.Value)
	}
	if !strings.Contains(panicErr.Error(), "kaboom") {
		t.Errorf("Error() missing panic value: %s", panicErr.Error())
	}
	// Internal frames are cleaned out of the stack.
	if strings.Contains(panicErr.Stack, "switchflow/flow/") {
		t.Errorf("stack contains internal frames:\n%s", panicErr.Stack)
	}
}
