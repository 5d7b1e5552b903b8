package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"monitorss-articles/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
)

// PageFetcher retrieves article pages for content injection. It shares
// the fetch limits with the feed fetcher but runs behind its own circuit
// breaker, so a broken article host cannot trip feed polling.
type PageFetcher struct {
	client         *http.Client
	config         Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewPageFetcher creates a page fetcher with the given configuration.
func NewPageFetcher(cfg Config) *PageFetcher {
	f := &PageFetcher{
		config: cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "page-fetch",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
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

// FetchPage retrieves the HTML body at the URL.
func (f *PageFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL, f.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, pageURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("page fetch circuit breaker open, request rejected",
				slog.String("service", "page-fetch"),
				slog.String("url", pageURL))
		}
		return "", err
	}
	return cbResult.(string), nil
}

func (f *PageFetcher) doFetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := readBodyLimited(resp.Body, f.config.MaxBodySize)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
