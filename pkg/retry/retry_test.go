package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int

	v, err := Do(context.Background(), fastPolicy(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", NewRetryableError(errors.New("502"))
		}
		return "ok", nil
	}, func(attempt int, _ error, _ time.Duration) {
		retried = append(retried, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnFatal(t *testing.T) {
	calls := 0
	cause := errors.New("401")

	_, err := Do(context.Background(), fastPolicy(5), func() (int, error) {
		calls++
		return 0, NewFatalError(cause)
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	retries := 0

	_, err := Do(context.Background(), fastPolicy(2), func() (int, error) {
		calls++
		return 0, errors.New("flaky")
	}, func(int, error, time.Duration) { retries++ })

	require.EqualError(t, err, "flaky")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, retries)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func() (int, error) {
		calls++
		return 0, errors.New("x")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFromStatus(t *testing.T) {
	base := errors.New("status")
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, base)
			var r RetryableError
			var f FatalError
			assert.Equal(t, tt.retryable, errors.As(err, &r))
			assert.Equal(t, !tt.retryable, errors.As(err, &f))
			assert.ErrorIs(t, err, base)
		})
	}
}
