// Package articles implements the core of the feed-polling pipeline:
// parsing feed XML into articles, deciding which articles are genuinely
// new or meaningfully changed, persisting dedup state, and emitting the
// subset to deliver downstream.
package articles

import "errors"

// Sentinel errors for articles use case operations.
var (
	// ErrInvalidFeed indicates that the fetched bytes could not be
	// recognized as an RSS/Atom feed. Recoverable at the fetch
	// orchestrator via HTML link discovery and /feed, /rss probes.
	ErrInvalidFeed = errors.New("invalid feed")

	// ErrParseTimeout indicates that feed parsing exceeded its deadline.
	ErrParseTimeout = errors.New("feed parse timed out")

	// ErrNoIDType indicates that no identity field was present and
	// non-empty across every item of the feed.
	ErrNoIDType = errors.New("no article id type could be resolved")

	// ErrMissingIDHash indicates a built article without an id hash, a
	// post-build invariant violation.
	ErrMissingIDHash = errors.New("article is missing an id hash")

	// ErrPendingRequest indicates that the fetcher has no response body
	// yet for the requested URL.
	ErrPendingRequest = errors.New("feed request is still pending")

	// ErrArticleNotFound indicates a single-article lookup miss.
	ErrArticleNotFound = errors.New("feed article not found")
)
