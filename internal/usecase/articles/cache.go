package articles

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"monitorss-articles/internal/domain/entity"
)

// DefaultCacheTTL is how long cached article payloads live.
const DefaultCacheTTL = 300 * time.Second

// CacheStore is the key/value store consumed by the cache layer. The
// production implementation is the redis adapter in internal/infra/cache.
type CacheStore interface {
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the stored body and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	Set(ctx context.Context, key, body string, ttl time.Duration) error

	// SetKeepTTL replaces the value while preserving the key's remaining
	// time to live.
	SetKeepTTL(ctx context.Context, key, body string) error

	Del(ctx context.Context, key string) error

	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// ArticleCache stores compressed article payloads keyed by the canonical
// fingerprint of (url, options). Values are base64 of zlib-deflated JSON
// of {"articles": [...]}.
type ArticleCache struct {
	store CacheStore
	ttl   time.Duration
}

// NewArticleCache creates an ArticleCache over the given store with the
// default TTL.
func NewArticleCache(store CacheStore) *ArticleCache {
	return &ArticleCache{store: store, ttl: DefaultCacheTTL}
}

// SetOptions controls a cache write.
type SetOptions struct {
	// UseOldTTL preserves the entry's remaining TTL instead of resetting
	// it to the default.
	UseOldTTL bool
}

// Exists reports whether a cached payload exists for the fingerprint.
func (c *ArticleCache) Exists(ctx context.Context, url string, opts FetchArticlesOptions) (bool, error) {
	return c.store.Exists(ctx, cacheKey(url, opts))
}

// Get returns the cached articles for the fingerprint, or nil when the
// entry is absent.
func (c *ArticleCache) Get(ctx context.Context, url string, opts FetchArticlesOptions) ([]*entity.Article, error) {
	body, ok, err := c.store.Get(ctx, cacheKey(url, opts))
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if !ok {
		return nil, nil
	}
	decoded, err := decodeArticles(body)
	if err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return decoded, nil
}

// Set stores articles under the fingerprint.
func (c *ArticleCache) Set(ctx context.Context, url string, opts FetchArticlesOptions, value []*entity.Article, set SetOptions) error {
	body, err := encodeArticles(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	key := cacheKey(url, opts)
	if set.UseOldTTL {
		return c.store.SetKeepTTL(ctx, key, body)
	}
	return c.store.Set(ctx, key, body, c.ttl)
}

// Invalidate drops the cached payload for the fingerprint.
func (c *ArticleCache) Invalidate(ctx context.Context, url string, opts FetchArticlesOptions) error {
	return c.store.Del(ctx, cacheKey(url, opts))
}

// RefreshTTL bumps the entry back to the default TTL without rewriting
// the value.
func (c *ArticleCache) RefreshTTL(ctx context.Context, url string, opts FetchArticlesOptions) error {
	return c.store.Expire(ctx, cacheKey(url, opts), c.ttl)
}

// cachedArticles is the JSON wire shape of a cached payload.
type cachedArticles struct {
	Articles []*entity.Article `json:"articles"`
}

func encodeArticles(value []*entity.Article) (string, error) {
	if value == nil {
		// An empty feed still caches as a present entry.
		value = []*entity.Article{}
	}
	raw, err := json.Marshal(cachedArticles{Articles: value})
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeArticles(body string) ([]*entity.Article, error) {
	compressed, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	var payload cachedArticles
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Articles == nil {
		payload.Articles = []*entity.Article{}
	}
	return payload.Articles, nil
}
