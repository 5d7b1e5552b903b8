package notifier

import (
	"context"
	"log/slog"

	"monitorss-articles/internal/domain/entity"
)

// NoopChannel logs deliveries instead of sending them. Useful for local
// development and tests.
type NoopChannel struct {
	Disabled bool
}

// Name implements notify.Channel.
func (n *NoopChannel) Name() string { return "noop" }

// IsEnabled implements notify.Channel.
func (n *NoopChannel) IsEnabled() bool { return !n.Disabled }

// Send logs the delivery and succeeds.
func (n *NoopChannel) Send(_ context.Context, article *entity.Article, feed *entity.Feed) error {
	slog.Info("noop delivery",
		slog.String("feed_id", feed.ID),
		slog.String("id_hash", article.IDHash()),
		slog.String("title", article.Flattened["title"]))
	return nil
}
