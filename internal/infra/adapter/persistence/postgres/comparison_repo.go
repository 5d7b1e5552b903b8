package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"monitorss-articles/internal/repository"

	"github.com/lib/pq"
)

type ComparisonRepo struct{ db *sql.DB }

func NewComparisonRepo(db *sql.DB) repository.ComparisonRegistryRepository {
	return &ComparisonRepo{db: db}
}

func (repo *ComparisonRepo) FindStoredNames(ctx context.Context, feedID string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	const query = `
SELECT field_name
FROM feed_comparison_names
WHERE feed_id = $1
  AND field_name = ANY($2)`
	rows, err := repo.db.QueryContext(ctx, query, feedID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("FindStoredNames: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stored := make([]string, 0, len(names))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("FindStoredNames: Scan: %w", err)
		}
		stored = append(stored, name)
	}
	return stored, rows.Err()
}
