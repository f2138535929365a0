package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seafoodpulse/internal/config"
	apperrors "seafoodpulse/internal/errors"
)

// maxIframeDepth bounds recursion into embedded frames while exploring
const maxIframeDepth = 2

// Scraper discovers statistics files on the archive site
type Scraper struct {
	client   *Client
	renderer PageRenderer
	baseURL  string
	explore  bool
	logger   *slog.Logger
}

// New creates a scraper. The archive page itself is rendered with headless
// Chrome when UseBrowser is set; linked pages always use plain HTTP.
func New(cfg config.ScraperConfig, client *Client, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewClient(cfg, logger)
	}

	var renderer PageRenderer = client
	if cfg.UseBrowser {
		renderer = NewBrowserRenderer(cfg.BrowserTimeout, cfg.UserAgent, logger)
	}

	return &Scraper{
		client:   client,
		renderer: renderer,
		baseURL:  cfg.BaseURL,
		explore:  cfg.ExploreDataPages,
		logger:   logger.With(slog.String("component", "scraper")),
	}
}

// WithRenderer replaces the renderer used for the archive page
func (s *Scraper) WithRenderer(r PageRenderer) *Scraper {
	s.renderer = r
	return s
}

// Client returns the HTTP client shared with the downloader
func (s *Scraper) Client() *Client {
	return s.client
}

// Discover lists every downloadable file reachable from the archive page.
// Direct spreadsheet links come first, followed by files found on linked
// data pages. A data page that fails to load is logged and skipped.
func (s *Scraper) Discover(ctx context.Context) ([]FileLink, error) {
	html, err := s.renderer.Render(ctx, s.baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.NewParsingError("parse archive page", err)
	}

	files := FindSpreadsheetLinks(doc, s.baseURL)
	s.logger.InfoContext(ctx, "archive page scanned",
		slog.String("url", s.baseURL),
		slog.Int("direct_files", len(files)))

	if s.explore {
		for _, link := range FindDataLinks(doc, s.baseURL) {
			if hasExt(strings.ToLower(link.URL), dataFileExts) {
				continue
			}
			found, err := s.ExplorePage(ctx, link.URL, link.Type)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.WarnContext(ctx, "failed to explore data page",
					slog.String("url", link.URL),
					slog.String("error", err.Error()))
				continue
			}
			files = append(files, found...)
		}
	}

	return dedupe(files), nil
}

// ExplorePage collects spreadsheet and CSV links on url, following iframes
// up to two levels deep.
func (s *Scraper) ExplorePage(ctx context.Context, url string, linkType LinkType) ([]FileLink, error) {
	return s.explorePage(ctx, url, linkType, 0)
}

func (s *Scraper) explorePage(ctx context.Context, url string, linkType LinkType, depth int) ([]FileLink, error) {
	s.logger.DebugContext(ctx, "exploring page",
		slog.String("url", url),
		slog.String("type", string(linkType)),
		slog.Int("depth", depth))

	html, err := s.client.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.NewParsingError("parse "+url, err)
	}

	files := fileLinks(doc, url, fileExts, linkType)

	if depth < maxIframeDepth {
		for _, src := range iframeSources(doc, url) {
			nested, err := s.explorePage(ctx, src, linkType, depth+1)
			if err != nil {
				s.logger.DebugContext(ctx, "iframe skipped", slog.String("url", src), slog.String("error", err.Error()))
				continue
			}
			files = append(files, nested...)
		}
	}
	return files, nil
}

func dedupe(files []FileLink) []FileLink {
	seen := make(map[string]bool, len(files))
	out := make([]FileLink, 0, len(files))
	for _, f := range files {
		if seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		out = append(out, f)
	}
	return out
}
