package metrics

import "time"

// RecordDeliveryPass records metrics for one completed delivery pass.
func RecordDeliveryPass(feedID string, duration time.Duration, articlesSeen, articlesDelivered int) {
	DeliveryPassDuration.WithLabelValues(feedID).Observe(duration.Seconds())
	if articlesSeen > 0 {
		ArticlesSeenTotal.WithLabelValues(feedID).Add(float64(articlesSeen))
	}
	if articlesDelivered > 0 {
		ArticlesDeliveredTotal.WithLabelValues(feedID).Add(float64(articlesDelivered))
	}
}

// RecordArticleBlocked records one new article suppressed by a blocking
// comparison.
func RecordArticleBlocked(feedID string) {
	ArticlesBlockedTotal.WithLabelValues(feedID).Inc()
}

// RecordParseError records a feed parse failure.
// Kind should be one of "invalid_feed", "timeout", "no_id_type", "other".
func RecordParseError(kind string) {
	ParseErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordArticleCacheHit records a cache lookup that was served.
func RecordArticleCacheHit() {
	CacheResultsTotal.WithLabelValues("hit").Inc()
}

// RecordArticleCacheMiss records a cache lookup that fell through to a
// fetch.
func RecordArticleCacheMiss() {
	CacheResultsTotal.WithLabelValues("miss").Inc()
}

// RecordFeedFetch records an outbound feed fetch.
// Status should be either "success" or "failure".
func RecordFeedFetch(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	FeedFetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDelivery records the result of one downstream delivery attempt.
func RecordDelivery(channel string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DeliveriesTotal.WithLabelValues(channel, status).Inc()
}
