package articles

import (
	"context"

	"monitorss-articles/internal/domain/entity"

	"github.com/mmcdole/gofeed"
)

// FlattenOptions is passed through to the Flattener for each raw item.
type FlattenOptions struct {
	FormatOptions          *entity.FormatOptions
	UseParserRules         bool
	ExternalFeedProperties []entity.ExternalFeedProperty
}

// FlattenResult is what the Flattener produces for one raw item: the
// flattened key/value mapping, plus an optional deferred enrichment
// closure that fetches external content into the mapping.
type FlattenResult struct {
	Fields              map[string]string
	Inject              func(ctx context.Context, fields map[string]string) error
	HasContentInjection bool
}

// Flattener turns a raw feed item into string-keyed primitives. The
// production implementation lives in internal/infra/flatten.
type Flattener interface {
	Flatten(item *gofeed.Item, opts FlattenOptions) (FlattenResult, error)
}
