package articles

import (
	"context"
	"time"

	"monitorss-articles/internal/repository"
)

// FetchOptions is passed through to the feed fetcher.
type FetchOptions struct {
	ExecuteFetch             bool
	ExecuteFetchIfNotInCache bool
	LookupKey                string
}

// FetchResult is the fetcher's response. Found is false while the request
// is still pending and no body exists yet.
type FetchResult struct {
	Body  string
	Found bool
}

// FeedFetcher retrieves raw feed bodies. The production implementation is
// the HTTP fetcher in internal/infra/fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (FetchResult, error)
}

// Config holds tunables for the articles service.
type Config struct {
	// ParseTimeout bounds a single feed parse. Defaults to
	// DefaultParseTimeout when zero.
	ParseTimeout time.Duration

	// MaxInjectionArticleCount is the largest batch that still runs
	// content injection. Larger batches skip injection silently.
	MaxInjectionArticleCount int
}

// DefaultMaxInjectionArticleCount bounds content injection per parse.
const DefaultMaxInjectionArticleCount = 10

// Service is the articles core: it fetches and parses feeds, runs the
// dedup and comparison protocol, persists dedup state, and exposes the
// cache operations. Safe for concurrent use; correctness under
// overlapping polls of the same feed rests on the store's unique
// constraints, not on locking.
type Service struct {
	fieldRepo      repository.ArticleFieldRepository
	comparisonRepo repository.ComparisonRegistryRepository
	cache          *ArticleCache
	fetcher        FeedFetcher
	flattener      Flattener

	parseTimeout         time.Duration
	maxInjectionArticles int
	now                  func() time.Time
}

// NewService creates the articles service with its collaborators.
func NewService(
	fieldRepo repository.ArticleFieldRepository,
	comparisonRepo repository.ComparisonRegistryRepository,
	store CacheStore,
	fetcher FeedFetcher,
	flattener Flattener,
	cfg Config,
) *Service {
	parseTimeout := cfg.ParseTimeout
	if parseTimeout <= 0 {
		parseTimeout = DefaultParseTimeout
	}
	maxInjection := cfg.MaxInjectionArticleCount
	if maxInjection <= 0 {
		maxInjection = DefaultMaxInjectionArticleCount
	}
	return &Service{
		fieldRepo:            fieldRepo,
		comparisonRepo:       comparisonRepo,
		cache:                NewArticleCache(store),
		fetcher:              fetcher,
		flattener:            flattener,
		parseTimeout:         parseTimeout,
		maxInjectionArticles: maxInjection,
		now:                  time.Now,
	}
}

// Cache exposes the article cache operations (exists, get, set,
// invalidate, refresh).
func (s *Service) Cache() *ArticleCache {
	return s.cache
}
