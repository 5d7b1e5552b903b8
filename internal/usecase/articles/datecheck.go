package articles

import (
	"time"

	"monitorss-articles/internal/domain/entity"

	"github.com/araddon/dateparse"
)

// defaultDatePlaceholderReferences are the raw date fields consulted when
// a feed's date checks name none.
var defaultDatePlaceholderReferences = []string{"date", "pubdate"}

// filterByDateChecks drops articles older than the configured threshold.
// The first placeholder reference that parses as a valid date is the
// article's date; articles with no valid date are dropped. A nil or
// zero-threshold check passes everything through.
func filterByDateChecks(articles []*entity.Article, checks *entity.DateChecks, now time.Time) []*entity.Article {
	if checks == nil || checks.OldArticleDateDiffMsThreshold <= 0 {
		return articles
	}
	refs := checks.DatePlaceholderReferences
	if len(refs) == 0 {
		refs = defaultDatePlaceholderReferences
	}
	threshold := time.Duration(checks.OldArticleDateDiffMsThreshold) * time.Millisecond

	kept := make([]*entity.Article, 0, len(articles))
	for _, article := range articles {
		date, ok := articleDate(article, refs)
		if !ok {
			continue
		}
		if now.Sub(date) <= threshold {
			kept = append(kept, article)
		}
	}
	return kept
}

// articleDate resolves the first placeholder reference carrying a
// parseable date.
func articleDate(article *entity.Article, refs []string) (time.Time, bool) {
	for _, ref := range refs {
		var value *string
		switch ref {
		case "date":
			value = article.Raw.Date
		case "pubdate":
			value = article.Raw.PubDate
		}
		if value == nil || *value == "" {
			continue
		}
		if t, err := dateparse.ParseAny(*value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
