package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics for the worker's poll cycles.
var (
	// PollRunsTotal counts poll cycles by outcome
	PollRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_poll_runs_total",
			Help: "Total number of worker poll cycles",
		},
		[]string{"status"},
	)

	// PollRunDuration measures full poll cycle duration
	PollRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worker_poll_run_duration_seconds",
			Help:    "Duration of one full poll cycle over all feeds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// PollFeedsProcessed counts feeds processed per cycle
	PollFeedsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_poll_feeds_processed_total",
			Help: "Total number of feeds processed across poll cycles",
		},
	)

	// PollLastSuccess records the last successful cycle
	PollLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_poll_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful poll cycle",
		},
	)
)

// RecordPollRun records one completed poll cycle.
func RecordPollRun(success bool, duration time.Duration, feedsProcessed int) {
	status := "success"
	if !success {
		status = "failure"
	}
	PollRunsTotal.WithLabelValues(status).Inc()
	PollRunDuration.Observe(duration.Seconds())
	PollFeedsProcessed.Add(float64(feedsProcessed))
	if success {
		PollLastSuccess.SetToCurrentTime()
	}
}
