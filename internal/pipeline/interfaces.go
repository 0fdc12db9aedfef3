package pipeline

import (
	"context"

	"mediareport/pkg/models"
)

type Mailer interface {
	Reply(ctx context.Context, msg models.ReplyMessage) error
}

type Searcher interface {
	Search(ctx context.Context, query string, params models.RequestParameters) ([]models.SourceItem, error)
}

type Narrator interface {
	Narrate(ctx context.Context, query string, sources []models.SourceItem) (string, error)
}

// Browser hands out one rendering session per request.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	Screenshot(ctx context.Context, url string) ([]byte, error)
	RenderPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName, mimeType string) (string, error)
}

type Analytics interface {
	Lookup(ctx context.Context, domain string) (models.DomainStats, error)
}
