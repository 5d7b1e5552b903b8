// Package config loads the feeds file: the per-feed configuration the
// worker polls with (URL, comparisons, format options, date checks).
package config

import (
	"fmt"
	"os"

	"monitorss-articles/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// FeedsFile is the top-level shape of feeds.yaml.
type FeedsFile struct {
	Feeds []entity.Feed `yaml:"feeds"`
}

// LoadFeeds reads and validates the feeds file at path.
func LoadFeeds(path string) ([]entity.Feed, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration.
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var file FeedsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}
	if err := validateFeeds(file.Feeds); err != nil {
		return nil, err
	}
	return file.Feeds, nil
}

func validateFeeds(feeds []entity.Feed) error {
	seen := make(map[string]bool, len(feeds))
	for i, feed := range feeds {
		if feed.ID == "" {
			return &entity.ValidationError{
				Field:   "id",
				Message: fmt.Sprintf("feed #%d has no id", i),
			}
		}
		if feed.URL == "" {
			return &entity.ValidationError{
				FeedID:  feed.ID,
				Field:   "url",
				Message: "missing url",
			}
		}
		if seen[feed.ID] {
			return &entity.ValidationError{
				FeedID:  feed.ID,
				Field:   "id",
				Message: "duplicate id",
			}
		}
		seen[feed.ID] = true
	}
	return nil
}
