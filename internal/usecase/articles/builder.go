package articles

import (
	"context"
	"log/slog"
	"time"

	"monitorss-articles/internal/domain/entity"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	// injectionBatchSize is how many injection closures run concurrently
	// before pausing.
	injectionBatchSize = 25

	// injectionBatchPause is the courtesy pause between injection
	// batches, so a burst of page fetches does not hammer one host.
	injectionBatchPause = 1 * time.Second
)

// buildArticles turns parsed feed items into Articles: flattens each item,
// attaches id and idHash, and normalizes raw dates. Duplicate id hashes
// within the batch are permitted but warned about; they collide in the
// store later and the insert is absorbed.
func (s *Service) buildArticles(feed *gofeed.Feed, opts FlattenOptions) ([]*entity.Article, error) {
	resolver := newIDResolver()
	for _, item := range feed.Items {
		resolver.observe(item)
	}
	idKey, err := resolver.resolve()
	if err != nil {
		return nil, err
	}

	built := make([]*entity.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		res, err := s.flattener.Flatten(item, opts)
		if err != nil {
			return nil, err
		}

		id := itemIDValue(item, idKey)
		res.Fields["id"] = id
		res.Fields["idHash"] = HashValue(id)

		article := &entity.Article{
			Flattened:           res.Fields,
			Raw:                 rawDatesOf(item),
			HasContentInjection: res.HasContentInjection,
		}
		if res.Inject != nil {
			inject, fields := res.Inject, article.Flattened
			article.InjectContent = func(ctx context.Context) error {
				return inject(ctx, fields)
			}
		}
		built = append(built, article)
	}

	seen := make(map[string]bool, len(built))
	for _, article := range built {
		hash := article.IDHash()
		if hash == "" {
			return nil, ErrMissingIDHash
		}
		if seen[hash] {
			slog.Warn("duplicate article id hash within one parse",
				slog.String("id_hash", hash),
				slog.String("id", article.ID()))
		}
		seen[hash] = true
	}

	return built, nil
}

// rawDatesOf normalizes an item's temporal fields to RFC 3339. A value
// that does not parse as a date stays absent.
func rawDatesOf(item *gofeed.Item) entity.RawDates {
	raw := entity.RawDates{}
	if v := normalizeDate(item.PublishedParsed, item.Published); v != "" {
		raw.PubDate = &v
	}
	if v := normalizeDate(item.UpdatedParsed, item.Updated); v != "" {
		raw.Date = &v
	} else if raw.PubDate != nil {
		raw.Date = raw.PubDate
	}
	return raw
}

func normalizeDate(parsed *time.Time, wire string) string {
	if parsed != nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	if wire == "" {
		return ""
	}
	t, err := dateparse.ParseAny(wire)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// injectArticleContents runs the deferred enrichment closures in batches,
// awaiting each batch concurrently and pausing between batches. Batches
// over the configured article count skip injection entirely.
func (s *Service) injectArticleContents(ctx context.Context, built []*entity.Article) {
	if len(built) > s.maxInjectionArticles {
		return
	}
	var pending []*entity.Article
	for _, article := range built {
		if article.HasContentInjection && article.InjectContent != nil {
			pending = append(pending, article)
		}
	}
	if len(pending) == 0 {
		return
	}

	for start := 0; start < len(pending); start += injectionBatchSize {
		end := start + injectionBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for _, article := range pending[start:end] {
			article := article
			eg.Go(func() error {
				if err := article.InjectContent(egCtx); err != nil {
					slog.Warn("article content injection failed",
						slog.String("id_hash", article.IDHash()),
						slog.Any("error", err))
				}
				return nil
			})
		}
		_ = eg.Wait()

		if end < len(pending) {
			select {
			case <-time.After(injectionBatchPause):
			case <-ctx.Done():
				return
			}
		}
	}
}
