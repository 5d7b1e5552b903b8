package articles

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/repository"

	"github.com/mmcdole/gofeed"
)

/* ───────── in-memory stubs ───────── */

// memStore implements both the field store and the comparison registry
// over maps, mirroring the unique-constraint semantics of the real
// tables.
type memStore struct {
	mu         sync.Mutex
	fields     map[string]map[string]map[string]bool // feed → name → hash
	names      map[string]map[string]bool            // feed → comparison name
	persistErr error
}

func newMemStore() *memStore {
	return &memStore{
		fields: make(map[string]map[string]map[string]bool),
		names:  make(map[string]map[string]bool),
	}
}

func (m *memStore) addField(feedID, name, hash string) {
	if m.fields[feedID] == nil {
		m.fields[feedID] = make(map[string]map[string]bool)
	}
	if m.fields[feedID][name] == nil {
		m.fields[feedID][name] = make(map[string]bool)
	}
	m.fields[feedID][name][hash] = true
}

func (m *memStore) addName(feedID, name string) {
	if m.names[feedID] == nil {
		m.names[feedID] = make(map[string]bool)
	}
	m.names[feedID][name] = true
}

func (m *memStore) hasField(feedID, name, hash string) bool {
	return m.fields[feedID][name][hash]
}

func (m *memStore) PersistFields(_ context.Context, rows []entity.FieldRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return m.persistErr
	}
	for _, row := range rows {
		m.addField(row.FeedID, row.FieldName, row.HashedValue)
	}
	return nil
}

func (m *memStore) PersistComparisonNames(_ context.Context, feedID string, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.addName(feedID, name)
	}
	return nil
}

func (m *memStore) DeleteAllForFeed(_ context.Context, feedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, feedID)
	delete(m.names, feedID)
	return nil
}

func (m *memStore) HasArticlesStoredForFeed(_ context.Context, feedID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hashes := range m.fields[feedID] {
		if len(hashes) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindStoredIDHashes(_ context.Context, feedID string, hashes []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored []string
	for _, hash := range hashes {
		if m.hasField(feedID, entity.IDFieldName, hash) {
			stored = append(stored, hash)
		}
	}
	return stored, nil
}

func (m *memStore) SomeFieldsExist(_ context.Context, feedID string, pairs []entity.FieldPair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pair := range pairs {
		if m.hasField(feedID, pair.Name, pair.HashedValue) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InTransaction(_ context.Context, fn func(tx repository.FieldWriter) error) error {
	return fn(m)
}

func (m *memStore) FindStoredNames(_ context.Context, feedID string, names []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored []string
	for _, name := range names {
		if m.names[feedID][name] {
			stored = append(stored, name)
		}
	}
	return stored, nil
}

// memCacheStore is a map-backed CacheStore recording TTL operations.
type memCacheStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	expires []string
}

func newMemCacheStore() *memCacheStore {
	return &memCacheStore{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *memCacheStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok, nil
}

func (m *memCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.values[key]
	return body, ok, nil
}

func (m *memCacheStore) Set(_ context.Context, key, body string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = body
	m.ttls[key] = ttl
	return nil
}

func (m *memCacheStore) SetKeepTTL(_ context.Context, key, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = body
	return nil
}

func (m *memCacheStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.ttls, key)
	return nil
}

func (m *memCacheStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = ttl
	m.expires = append(m.expires, key)
	return nil
}

// stubFetcher serves canned bodies per URL and records every fetch.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	pending map[string]bool
	errs    map[string]error
	fetched []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies:  make(map[string]string),
		pending: make(map[string]bool),
		errs:    make(map[string]error),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, url string, _ FetchOptions) (FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if err := f.errs[url]; err != nil {
		return FetchResult{}, err
	}
	if f.pending[url] {
		return FetchResult{Found: false}, nil
	}
	body, ok := f.bodies[url]
	if !ok {
		return FetchResult{}, fmt.Errorf("no body for %s", url)
	}
	return FetchResult{Body: body, Found: true}, nil
}

// stubFlattener maps the common item fields without injection.
type stubFlattener struct{}

func (stubFlattener) Flatten(item *gofeed.Item, _ FlattenOptions) (FlattenResult, error) {
	fields := map[string]string{}
	for key, value := range map[string]string{
		"title":       item.Title,
		"link":        item.Link,
		"guid":        item.GUID,
		"pubdate":     item.Published,
		"description": item.Description,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return FlattenResult{Fields: fields}, nil
}

func newTestService(store *memStore, cacheStore CacheStore, fetcher FeedFetcher) *Service {
	if cacheStore == nil {
		cacheStore = newMemCacheStore()
	}
	return NewService(store, store, cacheStore, fetcher, stubFlattener{}, Config{})
}

/* ───────── feed fixtures ───────── */

type feedItem struct {
	guid        string
	title       string
	description string
	pubDate     string
}

func rssDoc(items ...feedItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0"><channel><title>test feed</title><link>https://example.com</link>` + "\n")
	for _, item := range items {
		b.WriteString("<item>")
		if item.guid != "" {
			b.WriteString("<guid>" + item.guid + "</guid>")
		}
		if item.title != "" {
			b.WriteString("<title>" + item.title + "</title>")
		}
		if item.description != "" {
			b.WriteString("<description>" + item.description + "</description>")
		}
		b.WriteString("<link>https://example.com/" + item.guid + "</link>")
		if item.pubDate != "" {
			b.WriteString("<pubDate>" + item.pubDate + "</pubDate>")
		}
		b.WriteString("</item>\n")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

func simpleItem(guid string) feedItem {
	return feedItem{
		guid:        guid,
		title:       "title " + guid,
		description: "description " + guid,
		pubDate:     "Tue, 10 Jun 2025 10:00:00 +0000",
	}
}
