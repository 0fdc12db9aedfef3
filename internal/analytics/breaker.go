package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"mediareport/pkg/circuitbreaker"
	"mediareport/pkg/models"
)

// BreakerProvider stops calling the provider while it keeps failing.
type BreakerProvider struct {
	provider Provider
	cb       *circuitbreaker.Wrapper
}

func NewBreakerProvider(provider Provider, cfg circuitbreaker.Config) *BreakerProvider {
	return &BreakerProvider{provider: provider, cb: circuitbreaker.NewWrapper(cfg)}
}

func (p *BreakerProvider) Lookup(ctx context.Context, domain string) (models.DomainStats, error) {
	stats, err := circuitbreaker.Execute(ctx, p.cb, func() (models.DomainStats, error) {
		return p.provider.Lookup(ctx, domain)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.DomainStats{}, fmt.Errorf("circuit breaker is open for %s: %w", p.cb.Name(), err)
		}
		return models.DomainStats{}, err
	}
	return stats, nil
}

func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

func (p *BreakerProvider) Breaker() *circuitbreaker.Wrapper {
	return p.cb
}
