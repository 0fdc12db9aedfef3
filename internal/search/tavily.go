package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/circuitbreaker"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
	"mediareport/pkg/retry"
)

type searchRequest struct {
	Query                    string   `json:"query"`
	Topic                    string   `json:"topic"`
	SearchDepth              string   `json:"search_depth"`
	ChunksPerSource          int      `json:"chunks_per_source"`
	MaxResults               int      `json:"max_results"`
	TimeRange                *string  `json:"time_range"`
	Days                     int      `json:"days"`
	IncludeRawContent        bool     `json:"include_raw_content"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions"`
	IncludeDomains           []string `json:"include_domains"`
	ExcludeDomains           []string `json:"exclude_domains"`
	Country                  string   `json:"country,omitempty"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// Client queries the Tavily news search API.
type Client struct {
	cfg     config.SearchConfig
	client  *http.Client
	breaker *circuitbreaker.Wrapper
	logger  logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBreaker routes every search call through w.
func WithBreaker(w *circuitbreaker.Wrapper) Option {
	return func(c *Client) { c.breaker = w }
}

func NewClient(cfg config.SearchConfig, log logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to params.MaxResults news items about query published
// within the last params.WindowDays days, in provider order.
func (c *Client) Search(ctx context.Context, query string, params models.RequestParameters) ([]models.SourceItem, error) {
	body := searchRequest{
		Query:           query,
		Topic:           c.cfg.Topic,
		SearchDepth:     c.cfg.Depth,
		ChunksPerSource: c.cfg.ChunksPerSource,
		MaxResults:      params.MaxResults,
		Days:            params.WindowDays,
		IncludeDomains:  []string{},
		ExcludeDomains:  []string{},
		Country:         c.cfg.Country,
	}

	onRetry := func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(constants.CollaboratorSearch)
		c.logger.WarnwCtx(ctx, "Search request failed, retrying", "attempt", attempt, "next_delay", next, "error", err)
	}

	resp, err := retry.Do(ctx, c.cfg.Retry.Policy(), func() (*searchResponse, error) {
		if c.breaker == nil {
			return c.do(ctx, body)
		}
		out, err := circuitbreaker.Execute(ctx, c.breaker, func() (*searchResponse, error) {
			return c.do(ctx, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, retry.NewFatalError(err)
		}
		return out, err
	}, onRetry)
	if err != nil {
		return nil, apperrors.Upstream(constants.CollaboratorSearch, err)
	}

	items := make([]models.SourceItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		items = append(items, models.SourceItem{
			URL:           r.URL,
			Title:         r.Title,
			PublishedDate: r.PublishedDate,
			Content:       r.Content,
			Score:         r.Score,
		})
		if params.MaxResults > 0 && len(items) == params.MaxResults {
			break
		}
	}

	c.logger.InfowCtx(ctx, "Search completed", "query", query, "results", len(items))
	return items, nil
}

func (c *Client) do(ctx context.Context, body searchRequest) (*searchResponse, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveCollaborator(constants.CollaboratorSearch, status, time.Since(start))
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, retry.NewFatalError(fmt.Errorf("marshal request failed: %w", err))
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.NewFatalError(fmt.Errorf("create request failed: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, retry.NewRetryableError(fmt.Errorf("request failed: %w", err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, retry.NewRetryableError(fmt.Errorf("read body failed: %w", err))
	}

	if res.StatusCode < constants.HTTPStatusOKMin || res.StatusCode >= constants.HTTPStatusOKMax {
		return nil, retry.FromStatus(res.StatusCode, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, truncate(string(raw), 256)))
	}

	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, retry.NewFatalError(fmt.Errorf("unmarshal response failed: %w", err))
	}
	status = "ok"
	return &out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
