// The worker polls every configured feed on a cron schedule, runs the
// delivery pass, and dispatches emitted articles downstream.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/infra/adapter/persistence/postgres"
	"monitorss-articles/internal/infra/cache"
	"monitorss-articles/internal/infra/db"
	"monitorss-articles/internal/infra/fetcher"
	"monitorss-articles/internal/infra/flatten"
	"monitorss-articles/internal/infra/notifier"
	workerPkg "monitorss-articles/internal/infra/worker"
	"monitorss-articles/internal/observability/logging"
	feedsConfig "monitorss-articles/internal/pkg/config"
	"monitorss-articles/internal/usecase/articles"
	"monitorss-articles/internal/usecase/notify"
	"monitorss-articles/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	workerConfig, err := workerPkg.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.String("feeds_file", workerConfig.FeedsFile),
		slog.Duration("poll_timeout", workerConfig.PollTimeout))

	feeds, err := feedsConfig.LoadFeeds(workerConfig.FeedsFile)
	if err != nil {
		logger.Error("failed to load feeds file", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("feeds loaded", slog.Int("feeds", len(feeds)))

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database schema", slog.Any("error", err))
		os.Exit(1)
	}
	redisStore := cache.OpenRedis()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetchConfig := fetcher.LoadConfigFromEnv()
	if err := fetchConfig.Validate(); err != nil {
		logger.Error("invalid fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	feedFetcher := fetcher.NewHTTPFeedFetcher(fetchConfig)
	pageFetcher := fetcher.NewPageFetcher(fetchConfig)

	service := articles.NewService(
		postgres.NewFieldRepo(database),
		postgres.NewComparisonRepo(database),
		redisStore,
		feedFetcher,
		flatten.NewGofeedFlattener(pageFetcher),
		articles.Config{
			ParseTimeout:             config.GetEnvDuration("PARSE_TIMEOUT", articles.DefaultParseTimeout),
			MaxInjectionArticleCount: config.GetEnvInt("MAX_ARTICLE_INJECTION_ARTICLE_COUNT", articles.DefaultMaxInjectionArticleCount),
		},
	)

	notifyService := buildNotifyService(logger, workerConfig.NotifyMaxConcurrent)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := notifyService.Shutdown(shutdownCtx); err != nil {
			logger.Warn("notification service shutdown incomplete", slog.Any("error", err))
		}
	}()

	healthServer := workerPkg.NewHealthServer(workerConfig.HealthPort, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, logger, workerConfig.MetricsPort)

	poller := &feedPoller{
		logger:      logger,
		service:     service,
		fetcher:     feedFetcher,
		notify:      notifyService,
		feeds:       feeds,
		pollTimeout: workerConfig.PollTimeout,
	}

	location, err := time.LoadLocation(workerConfig.Timezone)
	if err != nil {
		logger.Error("invalid timezone", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(workerConfig.CronSchedule, func() { poller.runOnce(ctx) }); err != nil {
		logger.Error("failed to schedule poll job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", workerConfig.CronSchedule))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("worker stopped")
}

// buildNotifyService wires the configured delivery channels. With no
// channel configured, deliveries go to the noop channel so the pipeline
// stays observable in development.
func buildNotifyService(logger *slog.Logger, maxConcurrent int) notify.Service {
	var channels []notify.Channel

	discordConfig := notifier.LoadDiscordConfigFromEnv()
	if discordConfig.Enabled {
		channels = append(channels, notifier.NewDiscordChannel(discordConfig))
		logger.Info("discord channel initialized")
	}
	if len(channels) == 0 {
		channels = append(channels, &notifier.NoopChannel{})
		logger.Info("no delivery channels configured, using noop channel")
	}

	return notify.NewService(channels, maxConcurrent)
}

// feedPoller runs one poll cycle over all configured feeds.
type feedPoller struct {
	logger      *slog.Logger
	service     *articles.Service
	fetcher     articles.FeedFetcher
	notify      notify.Service
	feeds       []entity.Feed
	pollTimeout time.Duration
}

func (p *feedPoller) runOnce(ctx context.Context) {
	pollID := uuid.NewString()
	logger := logging.WithPollID(p.logger, pollID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	processed := 0
	failed := 0
	for _, feed := range p.feeds {
		if ctx.Err() != nil {
			logger.Warn("poll cycle aborted", slog.Any("error", ctx.Err()))
			break
		}
		if err := p.pollFeed(ctx, logger, feed); err != nil {
			failed++
			logger.Warn("feed poll failed",
				slog.String("feed_id", feed.ID),
				slog.String("url", feed.URL),
				slog.Any("error", err))
			continue
		}
		processed++
	}

	duration := time.Since(start)
	workerPkg.RecordPollRun(failed == 0, duration, processed)
	logger.Info("poll cycle completed",
		slog.Int("processed", processed),
		slog.Int("failed", failed),
		slog.Duration("duration", duration))
}

func (p *feedPoller) pollFeed(ctx context.Context, logger *slog.Logger, feed entity.Feed) error {
	res, err := p.fetcher.Fetch(ctx, feed.URL, articles.FetchOptions{ExecuteFetchIfNotInCache: true})
	if err != nil {
		return err
	}
	if !res.Found {
		logger.Debug("feed request pending, skipping", slog.String("feed_id", feed.ID))
		return nil
	}

	result, err := p.service.GetArticlesToDeliverFromXML(ctx, articles.DeliveryRequest{
		FeedID:                 feed.ID,
		FeedXML:                res.Body,
		BlockingComparisons:    feed.BlockingComparisons,
		PassingComparisons:     feed.PassingComparisons,
		FormatOptions:          feed.FormatOptions,
		ExternalFeedProperties: feed.ExternalFeedProperties,
		DateChecks:             feed.DateChecks,
	})
	if err != nil {
		return err
	}

	for _, article := range result.ArticlesToDeliver {
		if err := p.notify.NotifyDeliveredArticle(ctx, article, &feed); err != nil {
			logger.Warn("failed to dispatch delivery",
				slog.String("feed_id", feed.ID),
				slog.Any("error", err))
		}
	}
	return nil
}
