package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

// Service marks webhook deliveries as seen so redeliveries of the same
// message are skipped.
type Service struct {
	repo   Repository
	ttl    time.Duration
	logger logger.Logger
}

func NewService(repo Repository, ttl time.Duration, log logger.Logger) *Service {
	return &Service{repo: repo, ttl: ttl, logger: log}
}

// Key derives the dedup key. Deliveries without a message id fall back to
// thread+subject+body so identical retries still collapse.
func Key(event models.IncomingEvent) string {
	id := event.MessageID
	if id == "" {
		id = strings.Join([]string{event.ThreadID, event.Subject, event.BodyText}, "|")
	}
	sum := sha256.Sum256([]byte(id))
	return constants.CacheKeyPrefixDedup + hex.EncodeToString(sum[:])
}

// IsDuplicate reports whether the delivery was already seen. A store error
// is returned alongside false so the caller can decide to proceed.
func (s *Service) IsDuplicate(ctx context.Context, event models.IncomingEvent) (bool, error) {
	key := Key(event)
	fresh, err := s.repo.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl)
	if err != nil {
		metrics.IncFallbackUsage("dedup", constants.FallbackAllow, "store_error")
		return false, err
	}
	if !fresh {
		s.logger.DebugwCtx(ctx, "Duplicate delivery detected", "key", key)
	}
	return !fresh, nil
}
