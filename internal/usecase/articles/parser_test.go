package articles

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeed_RSS(t *testing.T) {
	feed, err := parseFeed(context.Background(), rssDoc(simpleItem("a"), simpleItem("b")), 0)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "a", feed.Items[0].GUID)
}

func TestParseFeed_Atom(t *testing.T) {
	const atom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>atom feed</title>
  <entry>
    <id>urn:entry:1</id>
    <title>hello</title>
    <link href="https://example.com/1"/>
    <updated>2025-06-10T10:00:00Z</updated>
  </entry>
</feed>`
	feed, err := parseFeed(context.Background(), atom, 0)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "urn:entry:1", feed.Items[0].GUID)
}

func TestParseFeed_EmptyFeed(t *testing.T) {
	feed, err := parseFeed(context.Background(), rssDoc(), 0)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}

func TestParseFeed_NotAFeed(t *testing.T) {
	_, err := parseFeed(context.Background(), "just some words", 0)
	require.ErrorIs(t, err, ErrInvalidFeed)
}

func TestParseFeed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := parseFeed(ctx, rssDoc(simpleItem("a")), time.Minute)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestClassifyParseError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"feed type not detected", gofeed.ErrFeedTypeNotDetected, ErrInvalidFeed},
		{"xml syntax error", &xml.SyntaxError{Msg: "unexpected EOF", Line: 3}, ErrInvalidFeed},
		{"unexpected eof", io.ErrUnexpectedEOF, ErrInvalidFeed},
		{"truncated input", errors.New("Unexpected end of input"), ErrInvalidFeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyParseError(tt.in), tt.want)
		})
	}

	other := errors.New("disk on fire")
	assert.Equal(t, other, classifyParseError(other))
}
