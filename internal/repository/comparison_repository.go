package repository

import "context"

// ComparisonRegistryRepository reads the comparison-name registry: which
// comparison field names are currently activated per feed. Writes happen
// through FieldWriter.PersistComparisonNames so they share the delivery
// pass transaction.
type ComparisonRegistryRepository interface {
	// FindStoredNames returns the subset of names already activated for
	// the feed.
	FindStoredNames(ctx context.Context, feedID string, names []string) ([]string, error)
}
