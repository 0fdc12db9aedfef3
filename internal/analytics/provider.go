package analytics

import (
	"context"

	"mediareport/pkg/models"
)

// Provider resolves traffic statistics for a domain.
type Provider interface {
	Lookup(ctx context.Context, domain string) (models.DomainStats, error)
}
