package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

// Store is the part of a redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CacheProvider serves lookups from Redis and fills it on a miss. Cache
// errors fall through to the wrapped provider.
type CacheProvider struct {
	provider Provider
	store    Store
	ttl      time.Duration
	logger   logger.Logger
}

func NewCacheProvider(provider Provider, store Store, ttl time.Duration, log logger.Logger) *CacheProvider {
	return &CacheProvider{provider: provider, store: store, ttl: ttl, logger: log}
}

func cacheKey(domain string) string {
	return constants.CacheKeyPrefixAnalytics + domain
}

func (p *CacheProvider) Lookup(ctx context.Context, domain string) (models.DomainStats, error) {
	key := cacheKey(domain)

	val, err := p.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var stats models.DomainStats
		if jerr := json.Unmarshal([]byte(val), &stats); jerr == nil {
			metrics.IncAnalyticsCache("hit")
			return stats, nil
		}
		metrics.IncAnalyticsCache("corrupt")
	case errors.Is(err, redis.Nil):
		metrics.IncAnalyticsCache("miss")
	default:
		metrics.IncAnalyticsCache("error")
		p.logger.WarnwCtx(ctx, "Analytics cache read failed", "domain", domain, "error", err)
	}

	stats, err := p.provider.Lookup(ctx, domain)
	if err != nil {
		return models.DomainStats{}, err
	}

	if data, jerr := json.Marshal(stats); jerr == nil {
		if serr := p.store.Set(ctx, key, data, p.ttl).Err(); serr != nil {
			p.logger.WarnwCtx(ctx, "Analytics cache write failed", "domain", domain, "error", serr)
		}
	}
	return stats, nil
}
