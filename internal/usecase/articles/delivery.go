package articles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/observability/metrics"
	"monitorss-articles/internal/repository"
)

// DeliveryRequest carries one delivery pass for a feed: the fetched XML
// plus the feed's comparison configuration.
type DeliveryRequest struct {
	FeedID                 string
	FeedXML                string
	BlockingComparisons    []string
	PassingComparisons     []string
	FormatOptions          *entity.FormatOptions
	ExternalFeedProperties []entity.ExternalFeedProperty
	DateChecks             *entity.DateChecks
	UseParserRules         bool
	Debug                  bool
}

// DeliveryResult is the outcome of a delivery pass.
type DeliveryResult struct {
	AllArticles       []*entity.Article
	ArticlesToDeliver []*entity.Article
}

// GetArticlesToDeliverFromXML parses the feed XML and runs the dedup and
// comparison protocol. New articles that do not repeat a blocked value
// are delivered; previously-seen articles carrying a novel value in an
// activated passing field are delivered again. The first-ever poll of a
// feed only seeds dedup state and delivers nothing.
func (s *Service) GetArticlesToDeliverFromXML(ctx context.Context, req DeliveryRequest) (*DeliveryResult, error) {
	start := time.Now()
	feed, err := parseFeed(ctx, req.FeedXML, s.parseTimeout)
	if err != nil {
		metrics.RecordParseError(parseErrorKind(err))
		return nil, err
	}
	articles, err := s.buildArticles(feed, FlattenOptions{
		FormatOptions:          req.FormatOptions,
		UseParserRules:         req.UseParserRules,
		ExternalFeedProperties: req.ExternalFeedProperties,
	})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return &DeliveryResult{AllArticles: []*entity.Article{}, ArticlesToDeliver: []*entity.Article{}}, nil
	}

	comparisons := unionNames(req.BlockingComparisons, req.PassingComparisons)

	priorArticlesStored, err := s.fieldRepo.HasArticlesStoredForFeed(ctx, req.FeedID)
	if err != nil {
		return nil, fmt.Errorf("check prior articles: %w", err)
	}
	if !priorArticlesStored {
		// Seed pass: record every article without delivering, so the
		// first poll of a feed never floods with historical backfill.
		if err := s.seedFeed(ctx, req.FeedID, articles, comparisons); err != nil {
			return nil, err
		}
		if req.Debug {
			slog.Debug("seeded feed with initial articles",
				slog.String("feed_id", req.FeedID),
				slog.Int("articles", len(articles)))
		}
		metrics.RecordDeliveryPass(req.FeedID, time.Since(start), len(articles), 0)
		return &DeliveryResult{AllArticles: articles, ArticlesToDeliver: []*entity.Article{}}, nil
	}

	newArticles, seenArticles, err := s.partitionByIDHash(ctx, req.FeedID, articles)
	if err != nil {
		return nil, err
	}

	storedComparisons, err := s.comparisonRepo.FindStoredNames(ctx, req.FeedID, comparisons)
	if err != nil {
		return nil, fmt.Errorf("find stored comparison names: %w", err)
	}
	unstoredComparisons := subtractNames(comparisons, storedComparisons)

	articlesPastBlocks, err := s.checkBlocking(ctx, req.FeedID, newArticles,
		req.BlockingComparisons, storedComparisons)
	if err != nil {
		return nil, err
	}
	articlesPassedComparisons, err := s.checkPassing(ctx, req.FeedID, seenArticles,
		req.PassingComparisons, storedComparisons)
	if err != nil {
		return nil, err
	}

	if err := s.persistDeliveryState(ctx, req.FeedID, persistPlan{
		newArticles:         newArticles,
		passedArticles:      articlesPassedComparisons,
		allArticles:         articles,
		storedComparisons:   storedComparisons,
		passingComparisons:  req.PassingComparisons,
		unstoredComparisons: unstoredComparisons,
	}); err != nil {
		return nil, err
	}

	toDeliver := make([]*entity.Article, 0, len(articlesPastBlocks)+len(articlesPassedComparisons))
	toDeliver = append(toDeliver, articlesPastBlocks...)
	toDeliver = append(toDeliver, articlesPassedComparisons...)

	// Feeds list newest first; deliver oldest first.
	reverseArticles(toDeliver)
	toDeliver = filterByDateChecks(toDeliver, req.DateChecks, s.now())

	if req.Debug {
		slog.Debug("delivery pass complete",
			slog.String("feed_id", req.FeedID),
			slog.Int("all", len(articles)),
			slog.Int("new", len(newArticles)),
			slog.Int("seen", len(seenArticles)),
			slog.Int("past_blocks", len(articlesPastBlocks)),
			slog.Int("passed_comparisons", len(articlesPassedComparisons)),
			slog.Int("to_deliver", len(toDeliver)))
	}
	metrics.RecordDeliveryPass(req.FeedID, time.Since(start), len(articles), len(toDeliver))

	return &DeliveryResult{AllArticles: articles, ArticlesToDeliver: toDeliver}, nil
}

// seedFeed persists id rows plus the configured comparison values for
// every article in one transaction.
func (s *Service) seedFeed(ctx context.Context, feedID string, articles []*entity.Article, comparisons []string) error {
	rows := s.fieldRowsFor(feedID, articles, comparisons, false)
	return s.fieldRepo.InTransaction(ctx, func(tx repository.FieldWriter) error {
		return tx.PersistFields(ctx, rows)
	})
}

// partitionByIDHash splits articles into those whose id hash has never
// been stored for the feed and those already seen.
func (s *Service) partitionByIDHash(ctx context.Context, feedID string, articles []*entity.Article) (newArticles, seenArticles []*entity.Article, err error) {
	hashes := make([]string, 0, len(articles))
	for _, a := range articles {
		hashes = append(hashes, a.IDHash())
	}
	stored, err := s.fieldRepo.FindStoredIDHashes(ctx, feedID, hashes)
	if err != nil {
		return nil, nil, fmt.Errorf("find stored id hashes: %w", err)
	}
	storedSet := make(map[string]bool, len(stored))
	for _, h := range stored {
		storedSet[h] = true
	}
	for _, a := range articles {
		if storedSet[a.IDHash()] {
			seenArticles = append(seenArticles, a)
		} else {
			newArticles = append(newArticles, a)
		}
	}
	return newArticles, seenArticles, nil
}

// checkBlocking filters new articles through the activated blocking
// comparisons: an article is blocked when any such field value has been
// seen before for this feed.
func (s *Service) checkBlocking(ctx context.Context, feedID string, newArticles []*entity.Article, blockingComparisons, storedComparisons []string) ([]*entity.Article, error) {
	if len(blockingComparisons) == 0 {
		return newArticles, nil
	}
	active := intersectNames(storedComparisons, blockingComparisons)
	if len(active) == 0 {
		return newArticles, nil
	}

	passed := make([]*entity.Article, 0, len(newArticles))
	for _, article := range newArticles {
		pairs := fieldPairsFor(article, active)
		if len(pairs) == 0 {
			passed = append(passed, article)
			continue
		}
		blocked, err := s.fieldRepo.SomeFieldsExist(ctx, feedID, pairs)
		if err != nil {
			return nil, fmt.Errorf("check blocking comparisons: %w", err)
		}
		if !blocked {
			passed = append(passed, article)
		} else {
			metrics.RecordArticleBlocked(feedID)
		}
	}
	return passed, nil
}

// checkPassing promotes previously-seen articles that carry a novel value
// in an activated passing field.
func (s *Service) checkPassing(ctx context.Context, feedID string, seenArticles []*entity.Article, passingComparisons, storedComparisons []string) ([]*entity.Article, error) {
	if len(passingComparisons) == 0 {
		return nil, nil
	}
	active := intersectNames(storedComparisons, passingComparisons)
	if len(active) == 0 {
		return nil, nil
	}

	var passed []*entity.Article
	for _, article := range seenArticles {
		pairs := fieldPairsFor(article, active)
		if len(pairs) == 0 {
			continue
		}
		stored, err := s.fieldRepo.SomeFieldsExist(ctx, feedID, pairs)
		if err != nil {
			return nil, fmt.Errorf("check passing comparisons: %w", err)
		}
		if !stored {
			passed = append(passed, article)
		}
	}
	return passed, nil
}

// persistPlan is the staged write set of one delivery pass.
type persistPlan struct {
	newArticles         []*entity.Article
	passedArticles      []*entity.Article
	allArticles         []*entity.Article
	storedComparisons   []string
	passingComparisons  []string
	unstoredComparisons []string
}

// persistDeliveryState commits the pass's dedup writes in one
// transaction: id and comparison rows for new articles, comparison rows
// for passed articles, and a backfill plus registry insert for freshly
// activated comparison names.
func (s *Service) persistDeliveryState(ctx context.Context, feedID string, plan persistPlan) error {
	var (
		newRows      []entity.FieldRow
		passedRows   []entity.FieldRow
		backfillRows []entity.FieldRow
	)
	if len(plan.newArticles) > 0 {
		newRows = s.fieldRowsFor(feedID, plan.newArticles, plan.storedComparisons, false)
	}
	if len(plan.passedArticles) > 0 {
		activePassing := intersectNames(plan.storedComparisons, plan.passingComparisons)
		passedRows = s.fieldRowsFor(feedID, plan.passedArticles, activePassing, true)
	}
	if len(plan.unstoredComparisons) > 0 {
		backfillRows = s.fieldRowsFor(feedID, plan.allArticles, plan.unstoredComparisons, true)
	}
	if len(newRows) == 0 && len(passedRows) == 0 && len(backfillRows) == 0 && len(plan.unstoredComparisons) == 0 {
		return nil
	}

	return s.fieldRepo.InTransaction(ctx, func(tx repository.FieldWriter) error {
		if len(newRows) > 0 {
			if err := tx.PersistFields(ctx, newRows); err != nil {
				return fmt.Errorf("persist new article rows: %w", err)
			}
		}
		if len(passedRows) > 0 {
			if err := tx.PersistFields(ctx, passedRows); err != nil {
				return fmt.Errorf("persist passed article rows: %w", err)
			}
		}
		if len(backfillRows) > 0 {
			if err := tx.PersistFields(ctx, backfillRows); err != nil {
				return fmt.Errorf("persist comparison backfill rows: %w", err)
			}
		}
		if len(plan.unstoredComparisons) > 0 {
			if err := tx.PersistComparisonNames(ctx, feedID, plan.unstoredComparisons); err != nil {
				return fmt.Errorf("persist comparison names: %w", err)
			}
		}
		return nil
	})
}

// fieldRowsFor builds the rows persisted for articles: one id row each
// (unless skipIDStorage) plus one row per present comparison field value.
func (s *Service) fieldRowsFor(feedID string, articles []*entity.Article, comparisonFields []string, skipIDStorage bool) []entity.FieldRow {
	now := s.now()
	rows := make([]entity.FieldRow, 0, len(articles))
	for _, article := range articles {
		if !skipIDStorage {
			rows = append(rows, entity.FieldRow{
				FeedID:      feedID,
				FieldName:   entity.IDFieldName,
				HashedValue: article.IDHash(),
				CreatedAt:   now,
			})
		}
		for _, name := range comparisonFields {
			if name == entity.IDFieldName {
				continue
			}
			value, ok := article.Field(name)
			if !ok {
				continue
			}
			rows = append(rows, entity.FieldRow{
				FeedID:      feedID,
				FieldName:   name,
				HashedValue: HashValue(value),
				CreatedAt:   now,
			})
		}
	}
	return rows
}

// DeleteInfoForFeed removes all dedup state stored for a feed: field rows
// and activated comparison names.
func (s *Service) DeleteInfoForFeed(ctx context.Context, feedID string) error {
	return s.fieldRepo.InTransaction(ctx, func(tx repository.FieldWriter) error {
		return tx.DeleteAllForFeed(ctx, feedID)
	})
}

// fieldPairsFor returns the hashed (name, value) pairs an article carries
// for the given field names.
func fieldPairsFor(article *entity.Article, names []string) []entity.FieldPair {
	pairs := make([]entity.FieldPair, 0, len(names))
	for _, name := range names {
		value, ok := article.Field(name)
		if !ok {
			continue
		}
		pairs = append(pairs, entity.FieldPair{Name: name, HashedValue: HashValue(value)})
	}
	return pairs
}

func reverseArticles(articles []*entity.Article) {
	for i, j := 0, len(articles)-1; i < j; i, j = i+1, j-1 {
		articles[i], articles[j] = articles[j], articles[i]
	}
}

// unionNames merges name lists preserving first-seen order.
func unionNames(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// intersectNames returns the members of names that are also in in.
func intersectNames(in, names []string) []string {
	set := make(map[string]bool, len(in))
	for _, name := range in {
		set[name] = true
	}
	var out []string
	for _, name := range names {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}

// subtractNames returns the members of names not present in minus.
func subtractNames(names, minus []string) []string {
	set := make(map[string]bool, len(minus))
	for _, name := range minus {
		set[name] = true
	}
	var out []string
	for _, name := range names {
		if !set[name] {
			out = append(out, name)
		}
	}
	return out
}
