package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "seafoodpulse/internal/errors"
)

// BrowserRenderer loads pages in headless Chrome so that links injected by
// scripts are present in the returned HTML.
type BrowserRenderer struct {
	timeout   time.Duration
	userAgent string
	headless  bool
	logger    *slog.Logger
}

// NewBrowserRenderer creates a headless renderer
func NewBrowserRenderer(timeout time.Duration, userAgent string, logger *slog.Logger) *BrowserRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &BrowserRenderer{
		timeout:   timeout,
		userAgent: userAgent,
		headless:  true,
		logger:    logger.With(slog.String("component", "browser")),
	}
}

// Render navigates to url and returns the document's outer HTML once the
// body is ready.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "scraper.BrowserRender")
	defer span.End()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.headless))
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.timeout)
	defer cancelTimeout()

	start := time.Now()
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", apperrors.NewNetworkError(fmt.Sprintf("render %s", url), err)
	}

	b.logger.InfoContext(ctx, "rendered page",
		slog.String("url", url),
		slog.Int("bytes", len(html)),
		slog.Duration("elapsed", time.Since(start)))
	return html, nil
}
