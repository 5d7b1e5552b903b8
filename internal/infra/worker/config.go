// Package worker holds the worker process plumbing: its configuration,
// health endpoints, and run metrics.
package worker

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"monitorss-articles/pkg/config"
)

// Config controls the worker: how often feeds are polled, where health
// and metrics are served, and how many deliveries may run concurrently.
type Config struct {
	// CronSchedule is the 5-field cron expression driving polls.
	// Default: every 10 minutes.
	CronSchedule string

	// Timezone is the IANA timezone for cron evaluation.
	Timezone string

	// FeedsFile is the path of the feeds configuration file.
	FeedsFile string

	// PollTimeout bounds one full poll cycle over all feeds.
	PollTimeout time.Duration

	// NotifyMaxConcurrent caps concurrent downstream deliveries.
	NotifyMaxConcurrent int

	// HealthPort serves /health and /health/ready.
	HealthPort int

	// MetricsPort serves /metrics.
	MetricsPort int
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() Config {
	return Config{
		CronSchedule:        "*/10 * * * *",
		Timezone:            "UTC",
		FeedsFile:           "feeds.yaml",
		PollTimeout:         10 * time.Minute,
		NotifyMaxConcurrent: 10,
		HealthPort:          9091,
		MetricsPort:         9092,
	}
}

// LoadConfigFromEnv reads the worker configuration from environment
// variables and validates it. Invalid individual values fall back to
// defaults via the env helpers; structurally invalid results fail.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.CronSchedule = config.GetEnvString("CRON_SCHEDULE", cfg.CronSchedule)
	cfg.Timezone = config.GetEnvString("CRON_TIMEZONE", cfg.Timezone)
	cfg.FeedsFile = config.GetEnvString("FEEDS_FILE", cfg.FeedsFile)
	cfg.PollTimeout = config.GetEnvDuration("POLL_TIMEOUT", cfg.PollTimeout)
	cfg.NotifyMaxConcurrent = config.GetEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent)
	cfg.HealthPort = config.GetEnvInt("HEALTH_PORT", cfg.HealthPort)
	cfg.MetricsPort = config.GetEnvInt("METRICS_PORT", cfg.MetricsPort)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's structural constraints.
func (c Config) Validate() error {
	if _, err := cron.ParseStandard(c.CronSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.CronSchedule, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.FeedsFile == "" {
		return fmt.Errorf("feeds file path is empty")
	}
	if err := config.ValidatePositiveDuration(c.PollTimeout); err != nil {
		return fmt.Errorf("poll timeout: %w", err)
	}
	if c.NotifyMaxConcurrent < 1 || c.NotifyMaxConcurrent > 100 {
		return fmt.Errorf("notify max concurrent must be between 1 and 100, got %d", c.NotifyMaxConcurrent)
	}
	for _, port := range []int{c.HealthPort, c.MetricsPort} {
		if port < 1024 || port > 65535 {
			return fmt.Errorf("port must be between 1024 and 65535, got %d", port)
		}
	}
	return nil
}
