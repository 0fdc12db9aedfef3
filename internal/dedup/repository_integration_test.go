//go:build integration

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"mediareport/internal/logger"
	"mediareport/pkg/models"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisRepositorySetNX(t *testing.T) {
	client := setupRedis(t)
	repo := NewRepository(client)
	ctx := context.Background()

	ok, err := repo.SetNX(ctx, "k1", "v", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetNX(ctx, "k1", "v", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestServiceAgainstRedis(t *testing.T) {
	svc := NewService(NewRepository(setupRedis(t)), time.Minute, logger.NopLogger())
	event := models.IncomingEvent{MessageID: "msg-42"}

	dup, err := svc.IsDuplicate(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = svc.IsDuplicate(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, dup)
}
