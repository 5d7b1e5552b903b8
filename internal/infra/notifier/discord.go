package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/pkg/config"
)

// DiscordConfig contains configuration for Discord webhook deliveries.
type DiscordConfig struct {
	// Enabled indicates whether Discord deliveries are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// LoadDiscordConfigFromEnv reads Discord configuration from environment
// variables. The channel is enabled only when a webhook URL is set.
func LoadDiscordConfigFromEnv() DiscordConfig {
	webhookURL := config.GetEnvString("DISCORD_WEBHOOK_URL", "")
	return DiscordConfig{
		Enabled:    webhookURL != "",
		WebhookURL: webhookURL,
		Timeout:    config.GetEnvDuration("DISCORD_TIMEOUT", 10*time.Second),
	}
}

// DiscordChannel delivers articles to Discord via webhook.
type DiscordChannel struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordChannel creates a Discord channel. The rate limiter is set to
// 0.5 requests/second with a burst of 3 (Discord webhook limit: 30
// requests per minute).
func NewDiscordChannel(cfg DiscordConfig) *DiscordChannel {
	return &DiscordChannel{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

// discordWebhookPayload is the JSON payload sent to the webhook.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Color       int                `json:"color"`
	Footer      discordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord limits
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	truncationSuffix     = "..."

	// Discord blue color (#5865F2)
	discordBlueColor = 5793266
)

// Name implements notify.Channel.
func (d *DiscordChannel) Name() string { return "discord" }

// IsEnabled implements notify.Channel.
func (d *DiscordChannel) IsEnabled() bool { return d.config.Enabled }

// Send delivers one article to the webhook.
func (d *DiscordChannel) Send(ctx context.Context, article *entity.Article, feed *entity.Feed) error {
	if err := d.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload := d.buildEmbedPayload(article, feed)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// buildEmbedPayload maps an article's flattened fields onto a Discord
// embed, truncating to Discord's limits.
func (d *DiscordChannel) buildEmbedPayload(article *entity.Article, feed *entity.Feed) discordWebhookPayload {
	title := article.Flattened["title"]
	if title == "" {
		title = article.ID()
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	description := article.Flattened["description"]
	if len(description) > maxDescriptionLength {
		description = description[:maxDescriptionLength-len(truncationSuffix)] + truncationSuffix
	}

	embed := discordEmbed{
		Title:       title,
		Description: description,
		URL:         article.Flattened["link"],
		Color:       discordBlueColor,
		Footer: discordEmbedFooter{
			Text: feed.Name,
		},
	}
	if article.Raw.PubDate != nil {
		embed.Timestamp = *article.Raw.PubDate
	}

	return discordWebhookPayload{Embeds: []discordEmbed{embed}}
}
