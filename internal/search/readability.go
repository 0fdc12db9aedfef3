package search

import (
	"context"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

type Searcher interface {
	Search(ctx context.Context, query string, params models.RequestParameters) ([]models.SourceItem, error)
}

// FetchFunc returns the readable text of the page at url.
type FetchFunc func(url string, timeout time.Duration) (string, error)

func fetchArticle(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// ReadabilitySearcher expands thin snippets with the article body
// extracted from the source page. Extraction failures keep the snippet.
type ReadabilitySearcher struct {
	next   Searcher
	cfg    config.ReadabilityConfig
	fetch  FetchFunc
	logger logger.Logger
}

func WithReadability(next Searcher, cfg config.ReadabilityConfig, log logger.Logger) *ReadabilitySearcher {
	return &ReadabilitySearcher{next: next, cfg: cfg, fetch: fetchArticle, logger: log}
}

// WithFetcher replaces the page fetcher.
func (r *ReadabilitySearcher) WithFetcher(fetch FetchFunc) *ReadabilitySearcher {
	r.fetch = fetch
	return r
}

func (r *ReadabilitySearcher) Search(ctx context.Context, query string, params models.RequestParameters) ([]models.SourceItem, error) {
	items, err := r.next.Search(ctx, query, params)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		if len([]rune(items[i].Content)) >= r.cfg.MinChars {
			continue
		}

		start := time.Now()
		text, err := r.fetch(items[i].URL, r.cfg.FetchTimeout)
		text = strings.TrimSpace(text)
		if err != nil || text == "" {
			metrics.ObserveCollaborator(constants.CollaboratorReadability, "error", time.Since(start))
			r.logger.DebugwCtx(ctx, "Article extraction failed, keeping snippet", "url", items[i].URL, "error", err)
			continue
		}
		metrics.ObserveCollaborator(constants.CollaboratorReadability, "ok", time.Since(start))

		if r.cfg.MaxChars > 0 {
			text = truncate(text, r.cfg.MaxChars)
		}
		if len(text) > len(items[i].Content) {
			items[i].Content = text
		}
	}
	return items, nil
}
