package articles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/observability/metrics"
)

// FetchArticlesOptions configures a fetch-and-parse pass.
type FetchArticlesOptions struct {
	FormatOptions          *entity.FormatOptions
	ExternalFeedProperties []entity.ExternalFeedProperty
	RequestLookupDetails   *entity.RequestLookupDetails
	UseParserRules         bool

	// FindRSSFromHTML enables recovery when the fetched body is an HTML
	// page linking to a feed.
	FindRSSFromHTML bool

	// ExecuteFetch forces the fetcher to issue a request even when its
	// own request cache has nothing for the URL.
	ExecuteFetch bool
}

// FetchArticlesResult is the orchestrator's output. Pending is true when
// the fetcher had no body yet; Output is nil in that case.
type FetchArticlesResult struct {
	Output                     []*entity.Article
	URL                        string
	Pending                    bool
	AttemptedToResolveFromHTML bool
}

func (o FetchArticlesOptions) flattenOptions() FlattenOptions {
	return FlattenOptions{
		FormatOptions:          o.FormatOptions,
		UseParserRules:         o.UseParserRules,
		ExternalFeedProperties: o.ExternalFeedProperties,
	}
}

// FetchFeedArticles returns the feed's articles, serving from the cache
// when possible and writing through on a fresh parse. A cache hit
// refreshes the entry's TTL. When the body is not a feed and
// FindRSSFromHTML is set, it attempts to discover a feed link in the
// HTML and recurses on the resolved URL.
func (s *Service) FetchFeedArticles(ctx context.Context, feedURL string, opts FetchArticlesOptions) (*FetchArticlesResult, error) {
	cached, err := s.cache.Get(ctx, feedURL, opts)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		metrics.RecordArticleCacheHit()
		if err := s.cache.RefreshTTL(ctx, feedURL, opts); err != nil {
			return nil, err
		}
		return &FetchArticlesResult{Output: cached, URL: feedURL}, nil
	}
	metrics.RecordArticleCacheMiss()

	fetchURL := feedURL
	fetchOpts := FetchOptions{
		ExecuteFetchIfNotInCache: true,
		ExecuteFetch:             opts.ExecuteFetch,
	}
	if opts.RequestLookupDetails != nil {
		fetchOpts.LookupKey = opts.RequestLookupDetails.Key
		if opts.RequestLookupDetails.URL != "" {
			fetchURL = opts.RequestLookupDetails.URL
		}
	}

	res, err := s.fetcher.Fetch(ctx, fetchURL, fetchOpts)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return &FetchArticlesResult{URL: feedURL, Pending: true}, nil
	}

	feed, parseErr := parseFeed(ctx, res.Body, s.parseTimeout)
	if parseErr != nil {
		if errors.Is(parseErr, ErrInvalidFeed) && opts.FindRSSFromHTML {
			return s.resolveFromHTML(ctx, feedURL, res.Body, opts, parseErr)
		}
		metrics.RecordParseError(parseErrorKind(parseErr))
		return nil, parseErr
	}

	built, err := s.buildArticles(feed, opts.flattenOptions())
	if err != nil {
		return nil, err
	}
	s.injectArticleContents(ctx, built)

	if err := s.cache.Set(ctx, feedURL, opts, built, SetOptions{}); err != nil {
		return nil, err
	}
	return &FetchArticlesResult{Output: built, URL: feedURL}, nil
}

// resolveFromHTML handles the HTML fallback: look for a feed link in the
// body and retry against it. The original parse error is rethrown when
// discovery or the retried fetch fails.
func (s *Service) resolveFromHTML(ctx context.Context, feedURL, body string, opts FetchArticlesOptions, original error) (*FetchArticlesResult, error) {
	href := extractRSSFromHTML(body)
	if href == "" {
		metrics.RecordParseError(parseErrorKind(original))
		return nil, original
	}

	resolved, err := resolveFeedHref(feedURL, href)
	if err != nil {
		return nil, original
	}
	slog.Debug("attempting to resolve feed from html link",
		slog.String("url", feedURL),
		slog.String("resolved", resolved))

	retryOpts := opts
	retryOpts.FindRSSFromHTML = false
	res, err := s.FetchFeedArticles(ctx, resolved, retryOpts)
	if err != nil {
		return &FetchArticlesResult{URL: feedURL, AttemptedToResolveFromHTML: true}, original
	}
	res.AttemptedToResolveFromHTML = true
	return res, nil
}

// FindOrFetchFeedArticles wraps FetchFeedArticles with the /feed and /rss
// probes: when the URL is not a feed, common feed paths are tried before
// the original error is surfaced.
func (s *Service) FindOrFetchFeedArticles(ctx context.Context, feedURL string, opts FetchArticlesOptions) (*FetchArticlesResult, error) {
	res, err := s.FetchFeedArticles(ctx, feedURL, opts)
	if err == nil || !errors.Is(err, ErrInvalidFeed) {
		return res, err
	}

	base, baseErr := feedProbeBase(feedURL)
	if baseErr != nil {
		return nil, err
	}
	for _, suffix := range []string{"/feed", "/rss"} {
		probe, probeErr := s.FetchFeedArticles(ctx, base+suffix, opts)
		if probeErr == nil {
			return probe, nil
		}
	}
	return nil, err
}

// feedProbeBase strips the final "/" from origin + pathname.
func feedProbeBase(feedURL string) (string, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	base := parsed.Scheme + "://" + parsed.Host + parsed.Path
	return strings.TrimSuffix(base, "/"), nil
}

// resolveFeedHref resolves a discovered feed href. Relative hrefs
// starting with "/" resolve against the original URL's origin.
func resolveFeedHref(originalURL, href string) (string, error) {
	if !strings.HasPrefix(href, "/") {
		return href, nil
	}
	parsed, err := url.Parse(originalURL)
	if err != nil {
		return "", fmt.Errorf("parse original url: %w", err)
	}
	return parsed.Scheme + "://" + parsed.Host + href, nil
}

func parseErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFeed):
		return "invalid_feed"
	case errors.Is(err, ErrParseTimeout):
		return "timeout"
	case errors.Is(err, ErrNoIDType):
		return "no_id_type"
	default:
		return "other"
	}
}
