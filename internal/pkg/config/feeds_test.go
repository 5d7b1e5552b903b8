package config

import (
	"os"
	"path/filepath"
	"testing"

	"monitorss-articles/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeedsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFeeds(t *testing.T) {
	path := writeFeedsFile(t, `
feeds:
  - id: feed-1
    url: https://example.com/rss
    name: Example
    blocking_comparisons: [title]
    passing_comparisons: [description]
    format_options:
      date_format: "2006-01-02"
      date_timezone: UTC
    date_checks:
      old_article_date_diff_ms_threshold: 86400000
  - id: feed-2
    url: https://example.org/atom
`)

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	assert.Equal(t, "feed-1", feeds[0].ID)
	assert.Equal(t, []string{"title"}, feeds[0].BlockingComparisons)
	assert.Equal(t, []string{"description"}, feeds[0].PassingComparisons)
	require.NotNil(t, feeds[0].FormatOptions)
	assert.Equal(t, "2006-01-02", feeds[0].FormatOptions.DateFormat)
	require.NotNil(t, feeds[0].DateChecks)
	assert.Equal(t, int64(86400000), feeds[0].DateChecks.OldArticleDateDiffMsThreshold)

	assert.Nil(t, feeds[1].FormatOptions)
}

func TestLoadFeeds_Validation(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		wantField string
	}{
		{"missing id", "feeds:\n  - url: https://example.com\n", "id"},
		{"missing url", "feeds:\n  - id: feed-1\n", "url"},
		{"duplicate id", "feeds:\n  - id: a\n    url: u1\n  - id: a\n    url: u2\n", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFeedsFile(t, tt.contents)
			_, err := LoadFeeds(path)
			require.Error(t, err)

			var validationErr *entity.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestLoadFeeds_MissingFile(t *testing.T) {
	_, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
