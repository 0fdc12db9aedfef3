package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/internal/pipeline"
	"mediareport/pkg/metrics"
)

const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	// 20px at 96dpi
	marginInches = 20.0 / 96.0
)

// Browser launches one headless Chrome per report.
type Browser struct {
	cfg    config.BrowserConfig
	logger logger.Logger
}

func NewBrowser(cfg config.BrowserConfig, log logger.Logger) *Browser {
	return &Browser{cfg: cfg, logger: log}
}

func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(int(cfg.ViewportWidth), int(cfg.ViewportHeight)),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

func (b *Browser) Open(ctx context.Context) (pipeline.Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(b.cfg)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	start := time.Now()
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		metrics.ObserveCollaborator(constants.CollaboratorBrowser, "error", time.Since(start))
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	metrics.ObserveCollaborator(constants.CollaboratorBrowser, "ok", time.Since(start))
	b.logger.DebugwCtx(ctx, "Browser launched", "elapsed_ms", time.Since(start).Milliseconds())

	return &Session{
		cfg:    b.cfg,
		ctx:    browserCtx,
		cancel: func() { cancelBrowser(); cancelAlloc() },
	}, nil
}

// Session is a running browser. Each call opens and closes its own tab.
type Session struct {
	cfg    config.BrowserConfig
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// tab returns a fresh tab bounded by timeout and by the caller's ctx.
func (s *Session) tab(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(s.ctx)
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancelTimeout)
	return tabCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}

// Screenshot loads url with scripts disabled and captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context, url string) ([]byte, error) {
	tabCtx, cancel := s.tab(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(tabCtx,
		emulation.SetScriptExecutionDisabled(true),
		chromedp.EmulateViewport(s.cfg.ViewportWidth, s.cfg.ViewportHeight),
		chromedp.Navigate(url),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", url, err)
	}
	return buf, nil
}

func pdfParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(a4WidthInches).
		WithPaperHeight(a4HeightInches).
		WithMarginTop(marginInches).
		WithMarginBottom(marginInches).
		WithMarginLeft(marginInches).
		WithMarginRight(marginInches)
}

// RenderPDF prints document as an A4 PDF with backgrounds.
func (s *Session) RenderPDF(ctx context.Context, document string) ([]byte, error) {
	tabCtx, cancel := s.tab(ctx, s.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := pdfParams().Do(ctx)
			if err != nil {
				return err
			}
			buf = data
			return nil
		}),
	)
	if err != nil {
		metrics.ObserveCollaborator(constants.CollaboratorBrowser, "error", time.Since(start))
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	metrics.ObserveCollaborator(constants.CollaboratorBrowser, "ok", time.Since(start))
	return buf, nil
}

func (s *Session) Close() error {
	s.once.Do(s.cancel)
	return nil
}
