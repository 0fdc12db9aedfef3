package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fatalErr struct{}

func (fatalErr) Error() string { return "401 unauthorized" }
func (fatalErr) IsFatal() bool { return true }

func testConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.Timeout = time.Hour
	cfg.ReadyToTrip = RatioTrip(2, 0.5)
	return cfg
}

func TestExecuteReturnsTypedResult(t *testing.T) {
	w := NewWrapper(testConfig("typed"))

	got, err := Execute(context.Background(), w, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	w := NewWrapper(testConfig("upstream"))
	boom := errors.New("502 bad gateway")

	for i := 0; i < 2; i++ {
		_, err := Execute(context.Background(), w, func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}
	assert.True(t, w.IsOpen())

	calls := 0
	_, err := Execute(context.Background(), w, func() (string, error) {
		calls++
		return "ok", nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
}

func TestFatalErrorsDoNotTripBreaker(t *testing.T) {
	w := NewWrapper(testConfig("fatal"))

	for i := 0; i < 5; i++ {
		_, err := Execute(context.Background(), w, func() (string, error) {
			return "", fmt.Errorf("search: %w", fatalErr{})
		})
		require.Error(t, err)
	}
	assert.False(t, w.IsOpen())
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestExecuteSkipsDoneContext(t *testing.T) {
	w := NewWrapper(testConfig("cancelled"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Execute(ctx, w, func() (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestCountsAsFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "cancelled", err: fmt.Errorf("wrap: %w", context.Canceled), want: false},
		{name: "fatal", err: fatalErr{}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "plain", err: errors.New("connection reset"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountsAsFailure(tt.err))
		})
	}
}

func TestStateChangeCallback(t *testing.T) {
	cfg := testConfig("callback")
	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	w := NewWrapper(cfg)

	for i := 0; i < 2; i++ {
		_, _ = Execute(context.Background(), w, func() (int, error) { return 0, errors.New("down") })
	}
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}
