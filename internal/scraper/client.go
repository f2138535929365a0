package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"seafoodpulse/internal/config"
	apperrors "seafoodpulse/internal/errors"
)

var tracer = otel.Tracer("seafoodpulse/scraper")

// PageRenderer returns the HTML of a page
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client fetches archive pages and files. Every request waits on a shared
// rate limiter and transient failures are retried with exponential backoff.
type Client struct {
	http            *resty.Client
	limiter         *rate.Limiter
	pageTimeout     time.Duration
	downloadTimeout time.Duration
	logger          *slog.Logger
}

// NewClient builds a client from the scraper configuration
func NewClient(cfg config.ScraperConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	httpClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeaders(map[string]string{
			"User-Agent":                userAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Upgrade-Insecure-Requests": "1",
		}).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:            httpClient,
		limiter:         rate.NewLimiter(rate.Limit(rps), 1),
		pageTimeout:     orDefault(cfg.PageTimeout, config.DefaultHTTPTimeout),
		downloadTimeout: orDefault(cfg.DownloadTimeout, 2*config.DefaultHTTPTimeout),
		logger:          logger.With(slog.String("component", "scraper_client")),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// SetRetryWait adjusts the backoff bounds between retries
func (c *Client) SetRetryWait(minWait, maxWait time.Duration) *Client {
	c.http.SetRetryWaitTime(minWait).SetRetryMaxWaitTime(maxWait)
	return c
}

// Render implements PageRenderer over plain HTTP
func (c *Client) Render(ctx context.Context, url string) (string, error) {
	return c.FetchPage(ctx, url)
}

// FetchPage returns the body of url. Non-2xx responses are errors.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "scraper.FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	c.logger.DebugContext(ctx, "fetching page", slog.String("url", url))
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return "", apperrors.NewNetworkError(fmt.Sprintf("fetch %s", url), err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		return "", apperrors.NewNetworkError(fmt.Sprintf("fetch %s: status %d", url, res.StatusCode()), nil).
			WithContext("status", res.StatusCode())
	}

	return res.String(), nil
}

// Download streams url into w and returns the number of bytes copied
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	ctx, span := tracer.Start(ctx, "scraper.Download")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return 0, apperrors.NewNetworkError(fmt.Sprintf("download %s", url), err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
		return 0, apperrors.NewNetworkError(fmt.Sprintf("download %s: status %d", url, res.StatusCode()), nil).
			WithContext("status", res.StatusCode())
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, apperrors.NewNetworkError(fmt.Sprintf("read body of %s", url), err)
	}
	span.SetAttributes(attribute.Int64("bytes", n))
	return n, nil
}
