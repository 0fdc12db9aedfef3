package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediareport/internal/config"
	"mediareport/internal/logger"
	"mediareport/pkg/models"
)

type memoryRepo struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memoryRepo) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func TestKey(t *testing.T) {
	a := models.IncomingEvent{MessageID: "m-1", ThreadID: "t"}
	b := models.IncomingEvent{MessageID: "m-1", ThreadID: "other"}
	c := models.IncomingEvent{ThreadID: "t", Subject: "s", BodyText: "b"}
	d := models.IncomingEvent{ThreadID: "t", Subject: "s", BodyText: "different"}

	assert.Equal(t, Key(a), Key(b), "message id wins over thread")
	assert.NotEqual(t, Key(c), Key(d))
	assert.Contains(t, Key(a), "dedup:webhook:")
}

func TestIsDuplicate(t *testing.T) {
	svc := NewService(&memoryRepo{}, time.Hour, logger.NopLogger())
	event := models.IncomingEvent{MessageID: "m-1"}

	dup, err := svc.IsDuplicate(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = svc.IsDuplicate(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicateStoreError(t *testing.T) {
	svc := NewService(&memoryRepo{err: errors.New("conn refused")}, time.Hour, logger.NopLogger())

	dup, err := svc.IsDuplicate(context.Background(), models.IncomingEvent{MessageID: "m"})
	assert.Error(t, err)
	assert.False(t, dup)
}

func TestCircuitBreakerRepositoryOpens(t *testing.T) {
	repo := NewCircuitBreakerRepository(&memoryRepo{err: errors.New("down")}, config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})

	for i := 0; i < 2; i++ {
		_, err := repo.SetNX(context.Background(), "k", 1, time.Second)
		require.Error(t, err)
	}

	_, err := repo.SetNX(context.Background(), "k", 1, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, "open", repo.State())
}

func TestCircuitBreakerRepositoryDisabled(t *testing.T) {
	repo := NewCircuitBreakerRepository(&memoryRepo{}, config.CircuitBreakerConfig{})
	ok, err := repo.SetNX(context.Background(), "k", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "disabled", repo.State())
}
