package articles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFeedArticles_ParsesAndCaches(t *testing.T) {
	cacheStore := newMemCacheStore()
	fetcher := newStubFetcher()
	fetcher.bodies["https://example.com/rss"] = rssDoc(simpleItem("a"), simpleItem("b"))
	svc := newTestService(newMemStore(), cacheStore, fetcher)

	res, err := svc.FetchFeedArticles(context.Background(), "https://example.com/rss", FetchArticlesOptions{})
	require.NoError(t, err)
	require.Len(t, res.Output, 2)
	assert.False(t, res.Pending)
	assert.Equal(t, "https://example.com/rss", res.URL)
	assert.Len(t, cacheStore.values, 1)
}

func TestFetchFeedArticles_CacheHitRefreshesTTLWithoutFetch(t *testing.T) {
	cacheStore := newMemCacheStore()
	fetcher := newStubFetcher()
	url := "https://example.com/rss"
	fetcher.bodies[url] = rssDoc(simpleItem("a"))
	svc := newTestService(newMemStore(), cacheStore, fetcher)
	ctx := context.Background()

	first, err := svc.FetchFeedArticles(ctx, url, FetchArticlesOptions{})
	require.NoError(t, err)
	require.Len(t, fetcher.fetched, 1)

	second, err := svc.FetchFeedArticles(ctx, url, FetchArticlesOptions{})
	require.NoError(t, err)

	assert.Len(t, fetcher.fetched, 1, "cache hit must not reach the fetcher")
	assert.Len(t, cacheStore.expires, 1, "cache hit must refresh the TTL")
	require.Len(t, second.Output, 1)
	assert.Equal(t, first.Output[0].Flattened, second.Output[0].Flattened)
}

func TestFetchFeedArticles_PendingRequest(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pending["https://example.com/rss"] = true
	svc := newTestService(newMemStore(), nil, fetcher)

	res, err := svc.FetchFeedArticles(context.Background(), "https://example.com/rss", FetchArticlesOptions{})
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Nil(t, res.Output)
}

func TestFetchFeedArticles_HTMLFallback(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.bodies["https://example.com/blog"] = `<!doctype html><html><head>
<link rel="alternate" type="application/rss+xml" href="/rss.xml">
</head><body>hi</body></html>`
	fetcher.bodies["https://example.com/rss.xml"] = rssDoc(simpleItem("a"))
	svc := newTestService(newMemStore(), nil, fetcher)

	res, err := svc.FetchFeedArticles(context.Background(), "https://example.com/blog",
		FetchArticlesOptions{FindRSSFromHTML: true})
	require.NoError(t, err)

	assert.True(t, res.AttemptedToResolveFromHTML)
	require.Len(t, res.Output, 1)
	require.Len(t, fetcher.fetched, 2)
	assert.Equal(t, "https://example.com/rss.xml", fetcher.fetched[1])
}

func TestFetchFeedArticles_HTMLFallbackDisabled(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.bodies["https://example.com/blog"] = `<!doctype html><html><body>hi</body></html>`
	svc := newTestService(newMemStore(), nil, fetcher)

	_, err := svc.FetchFeedArticles(context.Background(), "https://example.com/blog", FetchArticlesOptions{})
	require.ErrorIs(t, err, ErrInvalidFeed)
}

func TestFindOrFetchFeedArticles_ProbesFeedPaths(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.bodies["https://example.com/blog/"] = "plainly not xml at all"
	fetcher.errs["https://example.com/blog/feed"] = assert.AnError
	fetcher.bodies["https://example.com/blog/rss"] = rssDoc(simpleItem("a"))
	svc := newTestService(newMemStore(), nil, fetcher)

	res, err := svc.FindOrFetchFeedArticles(context.Background(), "https://example.com/blog/", FetchArticlesOptions{})
	require.NoError(t, err)
	require.Len(t, res.Output, 1)
	assert.Equal(t, "https://example.com/blog/rss", res.URL)
}

func TestFindOrFetchFeedArticles_RethrowsOriginalError(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.bodies["https://example.com/blog"] = "plainly not xml at all"
	fetcher.errs["https://example.com/blog/feed"] = assert.AnError
	fetcher.errs["https://example.com/blog/rss"] = assert.AnError
	svc := newTestService(newMemStore(), nil, fetcher)

	_, err := svc.FindOrFetchFeedArticles(context.Background(), "https://example.com/blog", FetchArticlesOptions{})
	require.ErrorIs(t, err, ErrInvalidFeed)
}

func TestResolveFeedHref(t *testing.T) {
	resolved, err := resolveFeedHref("https://example.com/some/page", "/rss.xml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/rss.xml", resolved)

	absolute, err := resolveFeedHref("https://example.com/some/page", "https://feeds.example.org/main")
	require.NoError(t, err)
	assert.Equal(t, "https://feeds.example.org/main", absolute)
}
