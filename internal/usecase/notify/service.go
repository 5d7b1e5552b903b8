package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/observability/metrics"
)

// deliveryTimeout bounds one channel send.
const deliveryTimeout = 30 * time.Second

// Service dispatches delivered articles to all enabled channels without
// blocking the caller.
type Service interface {
	// NotifyDeliveredArticle dispatches one article in the background.
	// Always returns nil; channel failures are logged and counted.
	NotifyDeliveredArticle(ctx context.Context, article *entity.Article, feed *entity.Feed) error

	// Shutdown waits for in-flight deliveries to finish or the context
	// to expire.
	Shutdown(ctx context.Context) error
}

type service struct {
	channels   []Channel
	workerPool chan struct{}
	wg         sync.WaitGroup
}

// NewService creates a notification service with bounded concurrency.
func NewService(channels []Channel, maxConcurrent int) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &service{
		channels:   channels,
		workerPool: make(chan struct{}, maxConcurrent),
	}
}

func (s *service) NotifyDeliveredArticle(ctx context.Context, article *entity.Article, feed *entity.Feed) error {
	if article == nil {
		return nil
	}
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		ch := ch
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			select {
			case s.workerPool <- struct{}{}:
				defer func() { <-s.workerPool }()
			case <-ctx.Done():
				metrics.RecordDelivery(ch.Name(), false)
				return
			}

			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
			defer cancel()

			if err := ch.Send(sendCtx, article, feed); err != nil {
				metrics.RecordDelivery(ch.Name(), false)
				slog.Warn("article delivery failed",
					slog.String("channel", ch.Name()),
					slog.String("feed_id", feed.ID),
					slog.String("id_hash", article.IDHash()),
					slog.Any("error", err))
				return
			}
			metrics.RecordDelivery(ch.Name(), true)
		}()
	}
	return nil
}

func (s *service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
