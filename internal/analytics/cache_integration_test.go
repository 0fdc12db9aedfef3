//go:build integration

package analytics

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

func TestCacheProviderAgainstRedis(t *testing.T) {
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

	stub := &stubProvider{stats: models.DomainStats{Domain: "bbc.co.uk", SiteName: "BBC", MonthlyVisits: "412.3M"}}
	p := NewCacheProvider(stub, client, time.Minute, logger.NopLogger())

	first, err := p.Lookup(ctx, "bbc.co.uk")
	require.NoError(t, err)
	second, err := p.Lookup(ctx, "bbc.co.uk")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls)

	ttl, err := client.TTL(ctx, "analytics:domain:bbc.co.uk").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
