package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"monitorss-articles/internal/observability/metrics"
	"monitorss-articles/internal/resilience/circuitbreaker"
	"monitorss-articles/internal/resilience/retry"
	"monitorss-articles/internal/usecase/articles"

	"github.com/sony/gobreaker"
)

// HTTPFeedFetcher implements articles.FeedFetcher over plain HTTP with
// retry and circuit breaker protection. The lookup key in the fetch
// options carries no meaning here; it exists for fetchers backed by a
// shared request cache.
type HTTPFeedFetcher struct {
	client         *http.Client
	config         Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewHTTPFeedFetcher creates a feed fetcher with the given configuration.
func NewHTTPFeedFetcher(cfg Config) *HTTPFeedFetcher {
	f := &HTTPFeedFetcher{
		config:         cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), cfg.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch retrieves the raw body at the URL. It returns Found=false for
// responses with no body, which callers treat as a pending request.
func (f *HTTPFeedFetcher) Fetch(ctx context.Context, feedURL string, opts articles.FetchOptions) (articles.FetchResult, error) {
	if err := validateURL(feedURL, f.config.DenyPrivateIPs); err != nil {
		return articles.FetchResult{}, err
	}

	var result articles.FetchResult
	start := time.Now()
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		result = cbResult.(articles.FetchResult)
		return nil
	})
	metrics.RecordFeedFetch(retryErr == nil, time.Since(start))
	if retryErr != nil {
		return articles.FetchResult{}, retryErr
	}
	return result, nil
}

// doFetch performs the actual request without retry or circuit breaker.
func (f *HTTPFeedFetcher) doFetch(ctx context.Context, feedURL string) (articles.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return articles.FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return articles.FetchResult{}, fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return articles.FetchResult{}, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("fetching %s", feedURL),
		}
	}
	// 202 means the origin accepted the request but has nothing yet.
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent {
		return articles.FetchResult{Found: false}, nil
	}

	body, err := readBodyLimited(resp.Body, f.config.MaxBodySize)
	if err != nil {
		return articles.FetchResult{}, err
	}
	if len(body) == 0 {
		return articles.FetchResult{Found: false}, nil
	}
	return articles.FetchResult{Body: string(body), Found: true}, nil
}

// readBodyLimited reads at most maxSize bytes and fails when the body is
// larger.
func readBodyLimited(r io.Reader, maxSize int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxSize)
	}
	return body, nil
}
