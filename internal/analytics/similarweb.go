package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
	"mediareport/pkg/retry"
)

// HTTPProvider queries the SimilarWeb public data endpoint, then each
// fallback endpoint in order, retrying transient failures per endpoint.
type HTTPProvider struct {
	endpoints []string
	client    *http.Client
	policy    retry.Policy
	logger    logger.Logger
}

func NewHTTPProvider(cfg config.AnalyticsConfig, log logger.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	endpoints := make([]string, 0, 1+len(cfg.FallbackEndpoints))
	if cfg.Endpoint != "" {
		endpoints = append(endpoints, cfg.Endpoint)
	}
	endpoints = append(endpoints, cfg.FallbackEndpoints...)

	return &HTTPProvider{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		policy:    cfg.Retry.Policy(),
		logger:    log,
	}
}

func (p *HTTPProvider) Lookup(ctx context.Context, domain string) (models.DomainStats, error) {
	if len(p.endpoints) == 0 {
		return models.DomainStats{}, apperrors.ErrServiceUnavailable.WithCause(fmt.Errorf("no analytics endpoint configured"))
	}

	var lastErr error
	for i, endpoint := range p.endpoints {
		if i > 0 {
			metrics.IncFallbackUsage(constants.CollaboratorAnalytics, "fallback_endpoint", "primary_failed")
			p.logger.DebugwCtx(ctx, "Trying fallback analytics endpoint", "domain", domain, "endpoint", endpoint)
		}

		onRetry := func(attempt int, err error, next time.Duration) {
			metrics.IncRetryAttempt(constants.CollaboratorAnalytics)
		}
		raw, err := retry.Do(ctx, p.policy, func() (rawData, error) {
			return p.fetch(ctx, endpoint, domain)
		}, onRetry)
		if err == nil {
			return Transform(domain, raw), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return models.DomainStats{}, apperrors.Upstream(constants.CollaboratorAnalytics, lastErr).WithDetail("domain", domain)
}

func (p *HTTPProvider) fetch(ctx context.Context, endpoint, domain string) (rawData, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveCollaborator(constants.CollaboratorAnalytics, status, time.Since(start))
	}()

	u, err := url.Parse(endpoint)
	if err != nil {
		return rawData{}, retry.NewFatalError(fmt.Errorf("invalid endpoint %q: %w", endpoint, err))
	}
	q := u.Query()
	q.Set("domain", domain)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return rawData{}, retry.NewFatalError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return rawData{}, retry.NewRetryableError(fmt.Errorf("analytics request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		_, _ = io.Copy(io.Discard, resp.Body)
		return rawData{}, retry.FromStatus(resp.StatusCode, fmt.Errorf("analytics api returned status: %d", resp.StatusCode))
	}

	var raw rawData
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return rawData{}, retry.NewFatalError(fmt.Errorf("failed to decode response: %w", err))
	}
	status = "ok"
	return raw, nil
}
