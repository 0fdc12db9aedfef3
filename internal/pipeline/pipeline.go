package pipeline

import (
	"context"
	"fmt"
	"time"

	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/internal/report"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/logging"
	"mediareport/pkg/metrics"
	"mediareport/pkg/models"
)

// Request is an admitted event plus what the ingress filter derived from it.
type Request struct {
	Event   models.IncomingEvent
	Params  models.RequestParameters
	ReplyTo string
}

// Summary is returned for a completed run.
type Summary struct {
	SourcesFound        int      `json:"sourcesFound"`
	ScreenshotsCaptured int      `json:"screenshotsCaptured"`
	AnalyticsEntries    int      `json:"analyticsEntries"`
	PDFFileName         string   `json:"pdfFileName"`
	FinalEmailConfirmed bool     `json:"finalEmailConfirmed"`
	Warnings            []string `json:"warnings,omitempty"`
}

type Dependencies struct {
	Mailer   Mailer
	Searcher Searcher
	Narrator Narrator
	Browser  Browser
	Uploader Uploader
	// Analytics is optional; nil disables the enrich stage.
	Analytics Analytics
}

type Pipeline struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(deps Dependencies, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{deps: deps, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discovery is what the discover stage found.
type Discovery struct {
	Sources   []models.SourceItem
	Narrative string
}

// Capture holds the rendered report. Screenshots is index-aligned with the
// discovered sources; a nil entry is a failed capture.
type Capture struct {
	Screenshots []*models.Screenshot
	PDF         []byte
	FileName    string
}

func (c Capture) CapturedCount() int {
	n := 0
	for _, s := range c.Screenshots {
		if s != nil && len(s.Data) > 0 {
			n++
		}
	}
	return n
}

type DeliverInput struct {
	Request Request
	Capture Capture
	// Analytics is rendered as a table only when WithAnalytics is set.
	Analytics     []models.DomainStats
	WithAnalytics bool
}

// Delivery reports the final send. Warning is set when the send could not
// be confirmed.
type Delivery struct {
	StorageKey string
	Confirmed  bool
	Warning    string
}

// Run executes acknowledge, discover, capture, enrich and deliver in order.
// The first fatal stage failure stops the run and is returned as a
// *errors.StageError.
func (p *Pipeline) Run(ctx context.Context, req Request) (Summary, error) {
	ctx = logging.WithThreadID(ctx, req.Event.ThreadID)
	var warnings []string

	if _, err := runStage(ctx, p, constants.StageAcknowledge, req, p.acknowledge); err != nil {
		return Summary{}, err
	}
	found, err := runStage(ctx, p, constants.StageDiscover, req, p.discover)
	if err != nil {
		return Summary{}, err
	}
	captured, err := runStage(ctx, p, constants.StageCapture, found, p.capture)
	if err != nil {
		return Summary{}, err
	}

	in := DeliverInput{Request: req, Capture: captured, WithAnalytics: p.deps.Analytics != nil}
	if in.WithAnalytics {
		stats, ok := runOptional(ctx, p, constants.StageEnrich, found.Sources, []models.DomainStats{}, p.enrich)
		if !ok {
			warnings = append(warnings, "analytics unavailable")
		}
		in.Analytics = stats
	}

	delivered, err := runStage(ctx, p, constants.StageDeliver, in, p.deliver)
	if err != nil {
		return Summary{}, err
	}
	if delivered.Warning != "" {
		warnings = append(warnings, delivered.Warning)
	}

	return Summary{
		SourcesFound:        len(found.Sources),
		ScreenshotsCaptured: captured.CapturedCount(),
		AnalyticsEntries:    len(in.Analytics),
		PDFFileName:         captured.FileName,
		FinalEmailConfirmed: delivered.Confirmed,
		Warnings:            warnings,
	}, nil
}

func replyTo(req Request, body string) models.ReplyMessage {
	return models.ReplyMessage{
		To:        req.ReplyTo,
		ThreadID:  req.Event.ThreadID,
		Subject:   req.Event.Subject,
		InReplyTo: req.Event.MessageID,
		HTMLBody:  body,
	}
}

func (p *Pipeline) acknowledge(ctx context.Context, req Request) (struct{}, error) {
	if err := p.deps.Mailer.Reply(ctx, replyTo(req, report.AcknowledgmentBody())); err != nil {
		return struct{}{}, fmt.Errorf("failed to send acknowledgment email: %w", err)
	}
	return struct{}{}, nil
}

func (p *Pipeline) discover(ctx context.Context, req Request) (Discovery, error) {
	sources, err := p.deps.Searcher.Search(ctx, req.Event.BodyText, req.Params)
	if err != nil {
		return Discovery{}, fmt.Errorf("search failed: %w", err)
	}
	if len(sources) == 0 {
		return Discovery{}, apperrors.ErrNoSources
	}

	narrative, err := p.deps.Narrator.Narrate(ctx, req.Event.BodyText, sources)
	if err != nil {
		return Discovery{}, fmt.Errorf("narrative generation failed: %w", err)
	}

	p.logger.InfowCtx(ctx, "Sources discovered", "count", len(sources), "narrative_bytes", len(narrative))
	return Discovery{Sources: sources, Narrative: narrative}, nil
}

func (p *Pipeline) capture(ctx context.Context, found Discovery) (Capture, error) {
	session, err := p.deps.Browser.Open(ctx)
	if err != nil {
		return Capture{}, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.logger.WarnwCtx(ctx, "Failed to close browser session", "error", cerr)
		}
	}()

	shots := make([]*models.Screenshot, len(found.Sources))
	for i, src := range found.Sources {
		data, err := session.Screenshot(ctx, src.URL)
		if err != nil || len(data) == 0 {
			metrics.IncScreenshot("failed")
			p.logger.WarnwCtx(ctx, "Screenshot failed, using placeholder", "index", i, "url", src.URL, "error", err)
			continue
		}
		metrics.IncScreenshot("ok")
		shots[i] = &models.Screenshot{Data: data, MimeType: constants.MimeTypePNG}
	}

	doc, err := report.Document(found.Narrative, found.Sources, shots)
	if err != nil {
		return Capture{}, err
	}

	pdf, err := session.RenderPDF(ctx, doc)
	if err != nil {
		return Capture{}, fmt.Errorf("failed to render PDF: %w", err)
	}
	return Capture{Screenshots: shots, PDF: pdf, FileName: report.FileName(p.now())}, nil
}

func (p *Pipeline) enrich(ctx context.Context, sources []models.SourceItem) ([]models.DomainStats, error) {
	stats := make([]models.DomainStats, 0, len(sources))
	byDomain := make(map[string]models.DomainStats, len(sources))

	for _, src := range sources {
		domain := src.Domain()
		if cached, ok := byDomain[domain]; ok {
			stats = append(stats, cached)
			continue
		}

		entry := models.PlaceholderStats(domain)
		if domain != "" {
			found, err := p.deps.Analytics.Lookup(ctx, domain)
			if err != nil {
				metrics.IncFallbackUsage(constants.StageEnrich, "placeholder", "lookup_error")
				p.logger.WarnwCtx(ctx, "Analytics lookup failed, using placeholder", "domain", domain, "error", err)
			} else {
				entry = found
			}
		}
		byDomain[domain] = entry
		stats = append(stats, entry)
	}
	return stats, nil
}

// deliver uploads the PDF then sends the final reply. Only the upload can
// fail the stage: once the report is stored, a failed or unconfirmed send
// becomes a warning.
func (p *Pipeline) deliver(ctx context.Context, in DeliverInput) (Delivery, error) {
	c := in.Capture
	key, err := p.deps.Uploader.Upload(ctx, c.PDF, c.FileName, constants.MimeTypePDF)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to upload report: %w", err)
	}

	table := ""
	if in.WithAnalytics {
		table = report.AnalyticsTable(in.Analytics)
	}
	body, err := report.FinalBody(table)
	if err != nil {
		return Delivery{}, err
	}

	msg := replyTo(in.Request, body)
	msg.Attachment = &models.Attachment{
		StorageKey: key,
		FileName:   c.FileName,
		MimeType:   constants.MimeTypePDF,
		Content:    c.PDF,
	}

	err = p.deps.Mailer.Reply(ctx, msg)
	switch {
	case err == nil:
		return Delivery{StorageKey: key, Confirmed: true}, nil
	case apperrors.IsDeliveryUnconfirmed(err):
		p.logger.WarnwCtx(ctx, "Final email outcome unconfirmed, treating as sent", "error", err)
		return Delivery{StorageKey: key, Warning: "final email delivery unconfirmed"}, nil
	default:
		metrics.IncFallbackUsage(constants.StageDeliver, "warning", "final_send_failed")
		p.logger.ErrorwCtx(ctx, "Final email send failed", "error", err, "storage_key", key)
		return Delivery{StorageKey: key, Warning: "final email send failed"}, nil
	}
}
