// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track the feed-polling pipeline
var (
	// DeliveryPassDuration measures one delivery pass end to end
	DeliveryPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "articles_delivery_pass_duration_seconds",
			Help:    "Duration of one delivery pass for a feed",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed_id"},
	)

	// ArticlesSeenTotal counts articles observed per feed poll
	ArticlesSeenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_seen_total",
			Help: "Total number of articles parsed out of feed polls",
		},
		[]string{"feed_id"},
	)

	// ArticlesDeliveredTotal counts articles emitted for delivery
	ArticlesDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_delivered_total",
			Help: "Total number of articles emitted for downstream delivery",
		},
		[]string{"feed_id"},
	)

	// ArticlesBlockedTotal counts articles suppressed by blocking comparisons
	ArticlesBlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_blocked_total",
			Help: "Total number of new articles suppressed by blocking comparisons",
		},
		[]string{"feed_id"},
	)

	// ParseErrorsTotal counts feed parse failures by kind
	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_parse_errors_total",
			Help: "Total number of feed parse failures",
		},
		[]string{"kind"},
	)

	// CacheResultsTotal counts article cache lookups by result
	CacheResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_cache_results_total",
			Help: "Total number of article cache lookups",
		},
		[]string{"result"},
	)

	// FeedFetchDuration measures outbound feed fetches
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Duration of outbound feed fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// DeliveriesTotal counts downstream channel deliveries by result
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_deliveries_total",
			Help: "Total number of downstream delivery attempts",
		},
		[]string{"channel", "status"},
	)
)
