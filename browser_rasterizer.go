package labelsheet

import (
	"bytes"
	"context"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BrowserRasterizer captures pages with a headless browser.
//
// It keeps one browser tab alive as the off-screen render target. Every
// [BrowserRasterizer.Rasterize] call replaces the tab's document with the
// page's sheet and screenshots it, so captures are serialised.
//
// Call [BrowserRasterizer.Close] when the BrowserRasterizer is no longer
// needed to release browser resources.
type BrowserRasterizer struct {
	cfg      browserConfig
	layout   Layout
	renderer *Renderer

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewBrowserRasterizer starts a headless browser sized to the layout's
// paper. If layout is nil, [DefaultLayout] is used. The caller must call
// [BrowserRasterizer.Close] when finished.
func NewBrowserRasterizer(layout *Layout, opts ...Option) (*BrowserRasterizer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	renderer, err := NewRenderer(layout)
	if err != nil {
		return nil, err
	}

	if cfg.chromePath == "" && cfg.autoDownload {
		if _, ok := lookupBrowser(); !ok {
			path, err := resolveBrowser()
			if err != nil {
				return nil, err
			}
			cfg.chromePath = path
		}
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("headless", cfg.headless),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	l := renderer.Layout()
	width, height := l.PaperPixels()

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx,
		emulation.SetDeviceMetricsOverride(int64(width+0.5), int64(height+0.5), cfg.scale, false),
		chromedp.Navigate("about:blank"),
	); err != nil {
		browserCancel()
		allocCancel()
		return nil, errors.Wrap(err, "labelsheet: starting browser")
	}

	cfg.logger.WithFields(log.Fields{
		"layout": l.Name,
		"scale":  cfg.scale,
	}).Debug("browser rasterizer started")

	return &BrowserRasterizer{
		cfg:           cfg,
		layout:        l,
		renderer:      renderer,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Layout returns the resolved layout pages are captured with.
func (b *BrowserRasterizer) Layout() Layout {
	return b.layout
}

// Close releases all resources held by the BrowserRasterizer, including
// the browser process. Close is idempotent.
func (b *BrowserRasterizer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.browserCancel()
	b.allocCancel()
	return nil
}

// Rasterize loads pg into the browser tab, replacing the previous page,
// and captures the sheet as PNG at the configured scale.
func (b *BrowserRasterizer) Rasterize(ctx context.Context, pg Page) (*Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc bytes.Buffer
	if err := b.renderer.RenderPage(&doc, pg); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	runCtx, cancel := b.runContext(ctx)
	defer cancel()

	width, height := b.layout.PaperPixels()
	var buf []byte
	if err := chromedp.Run(runCtx,
		setDocument(doc.String()),
		chromedp.WaitReady(".sheet", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithClip(&page.Viewport{X: 0, Y: 0, Width: width, Height: height, Scale: 1}).
				WithCaptureBeyondViewport(true).
				WithFromSurface(true).
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, errors.Wrapf(err, "labelsheet: capturing page %d", pg.Index+1)
	}
	return newRaster(buf)
}

// Clear replaces the tab's document with an empty one.
func (b *BrowserRasterizer) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	runCtx, cancel := b.runContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, setDocument("")); err != nil {
		return errors.Wrap(err, "labelsheet: clearing render target")
	}
	return nil
}

// runContext derives a context from the browser tab that is cancelled when
// ctx is done or the per-page timeout elapses. Cancelling it aborts the
// running actions without closing the tab.
func (b *BrowserRasterizer) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if b.cfg.timeout > 0 {
		runCtx, cancel = context.WithTimeout(b.browserCtx, b.cfg.timeout)
	} else {
		runCtx, cancel = context.WithCancel(b.browserCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// setDocument replaces the main frame's document with html.
func setDocument(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}
