// Package repository defines the persistence contracts consumed by the
// use-case layer. Implementations live under internal/infra.
package repository

import (
	"context"

	"monitorss-articles/internal/domain/entity"
)

// FieldWriter is the write surface of the field store. It is implemented
// both by the repository itself (autocommit) and by the transaction
// handle passed to InTransaction, so a delivery pass can stage all of its
// writes atomically.
//
// Inserts colliding on the unique (feed_id, field_name, field_hashed_value)
// and (feed_id, field_name) constraints are absorbed silently: a
// concurrent worker having written the same row first is not an error.
type FieldWriter interface {
	// PersistFields stores field rows for a feed.
	PersistFields(ctx context.Context, rows []entity.FieldRow) error

	// PersistComparisonNames records the given comparison field names as
	// activated for the feed.
	PersistComparisonNames(ctx context.Context, feedID string, names []string) error

	// DeleteAllForFeed removes every field row and comparison name
	// stored for the feed.
	DeleteAllForFeed(ctx context.Context, feedID string) error
}

// ArticleFieldRepository is the partitioned field store scoped by feed id.
type ArticleFieldRepository interface {
	FieldWriter

	// HasArticlesStoredForFeed reports whether any field row exists for
	// the feed. False means the feed has never completed a poll.
	HasArticlesStoredForFeed(ctx context.Context, feedID string) (bool, error)

	// FindStoredIDHashes returns the subset of candidate id hashes that
	// are already stored for the feed.
	FindStoredIDHashes(ctx context.Context, feedID string, hashes []string) ([]string, error)

	// SomeFieldsExist reports whether any of the (name, hashed value)
	// pairs is stored for the feed.
	SomeFieldsExist(ctx context.Context, feedID string, pairs []entity.FieldPair) (bool, error)

	// InTransaction runs fn against a transactional FieldWriter. All
	// writes issued through the handle commit or roll back together.
	InTransaction(ctx context.Context, fn func(tx FieldWriter) error) error
}
