package articles

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultParseTimeout bounds how long a single feed parse may run.
const DefaultParseTimeout = 10 * time.Second

// parseResult carries the outcome of a parse goroutine back over the
// completion channel.
type parseResult struct {
	feed *gofeed.Feed
	err  error
}

// parseFeed parses feed bytes into raw items, enforcing the parse
// timeout. An empty but valid feed returns zero items without error.
func parseFeed(ctx context.Context, xmlBody string, timeout time.Duration) (*gofeed.Feed, error) {
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// gofeed streams the document itself; the goroutine plus completion
	// channel joins that work with the timeout.
	done := make(chan parseResult, 1)
	go func() {
		fp := gofeed.NewParser()
		feed, err := fp.Parse(strings.NewReader(xmlBody))
		done <- parseResult{feed: feed, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, classifyParseError(res.err)
		}
		return res.feed, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrParseTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

// classifyParseError maps parser rejections of non-feed input to
// ErrInvalidFeed. All other parser errors propagate verbatim.
func classifyParseError(err error) error {
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return fmt.Errorf("%w: %s", ErrInvalidFeed, err.Error())
	}
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrInvalidFeed, err.Error())
	}
	if msg := err.Error(); strings.HasPrefix(msg, "Unexpected end") {
		return fmt.Errorf("%w: %s", ErrInvalidFeed, msg)
	}
	return err
}
