// Package postgres implements the persistence contracts over PostgreSQL.
//
// Schema:
//
//	article_field_values(feed_id, field_name, field_hashed_value, created_at)
//	    UNIQUE (feed_id, field_name, field_hashed_value)
//	feed_comparison_names(feed_id, field_name)
//	    UNIQUE (feed_id, field_name)
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/repository"

	"github.com/lib/pq"
)

type FieldRepo struct{ db *sql.DB }

func NewFieldRepo(db *sql.DB) repository.ArticleFieldRepository {
	return &FieldRepo{db: db}
}

// execer is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the write path serves both autocommit and transactional callers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (repo *FieldRepo) PersistFields(ctx context.Context, rows []entity.FieldRow) error {
	return persistFields(ctx, repo.db, rows)
}

func (repo *FieldRepo) PersistComparisonNames(ctx context.Context, feedID string, names []string) error {
	return persistComparisonNames(ctx, repo.db, feedID, names)
}

func (repo *FieldRepo) DeleteAllForFeed(ctx context.Context, feedID string) error {
	return deleteAllForFeed(ctx, repo.db, feedID)
}

func (repo *FieldRepo) HasArticlesStoredForFeed(ctx context.Context, feedID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM article_field_values WHERE feed_id = $1)`
	var existsFlag bool
	err := repo.db.QueryRowContext(ctx, query, feedID).Scan(&existsFlag)
	if err != nil {
		return false, fmt.Errorf("HasArticlesStoredForFeed: %w", err)
	}
	return existsFlag, nil
}

func (repo *FieldRepo) FindStoredIDHashes(ctx context.Context, feedID string, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	const query = `
SELECT field_hashed_value
FROM article_field_values
WHERE feed_id = $1
  AND field_name = $2
  AND field_hashed_value = ANY($3)`
	rows, err := repo.db.QueryContext(ctx, query, feedID, entity.IDFieldName, pq.Array(hashes))
	if err != nil {
		return nil, fmt.Errorf("FindStoredIDHashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stored := make([]string, 0, len(hashes))
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("FindStoredIDHashes: Scan: %w", err)
		}
		stored = append(stored, hash)
	}
	return stored, rows.Err()
}

func (repo *FieldRepo) SomeFieldsExist(ctx context.Context, feedID string, pairs []entity.FieldPair) (bool, error) {
	if len(pairs) == 0 {
		return false, nil
	}

	clauses := make([]string, 0, len(pairs))
	args := make([]interface{}, 0, 1+len(pairs)*2)
	args = append(args, feedID)
	paramIndex := 2
	for _, pair := range pairs {
		clauses = append(clauses, fmt.Sprintf("(field_name = $%d AND field_hashed_value = $%d)", paramIndex, paramIndex+1))
		args = append(args, pair.Name, pair.HashedValue)
		paramIndex += 2
	}

	query := `
SELECT EXISTS (
  SELECT 1 FROM article_field_values
  WHERE feed_id = $1 AND (` + strings.Join(clauses, " OR ") + `))`

	var existsFlag bool
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&existsFlag); err != nil {
		return false, fmt.Errorf("SomeFieldsExist: %w", err)
	}
	return existsFlag, nil
}

func (repo *FieldRepo) InTransaction(ctx context.Context, fn func(tx repository.FieldWriter) error) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InTransaction: begin: %w", err)
	}
	if err := fn(&fieldTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InTransaction: commit: %w", err)
	}
	return nil
}

// fieldTx is the transactional write handle handed to InTransaction
// callbacks.
type fieldTx struct{ tx *sql.Tx }

func (t *fieldTx) PersistFields(ctx context.Context, rows []entity.FieldRow) error {
	return persistFields(ctx, t.tx, rows)
}

func (t *fieldTx) PersistComparisonNames(ctx context.Context, feedID string, names []string) error {
	return persistComparisonNames(ctx, t.tx, feedID, names)
}

func (t *fieldTx) DeleteAllForFeed(ctx context.Context, feedID string) error {
	return deleteAllForFeed(ctx, t.tx, feedID)
}

// persistFields inserts field rows in one statement. ON CONFLICT DO
// NOTHING absorbs rows a concurrent worker already wrote.
func persistFields(ctx context.Context, db execer, rows []entity.FieldRow) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*4)
	paramIndex := 1
	for _, row := range rows {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)",
			paramIndex, paramIndex+1, paramIndex+2, paramIndex+3))
		args = append(args, row.FeedID, row.FieldName, row.HashedValue, row.CreatedAt)
		paramIndex += 4
	}

	query := `
INSERT INTO article_field_values
       (feed_id, field_name, field_hashed_value, created_at)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (feed_id, field_name, field_hashed_value) DO NOTHING`

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("PersistFields: %w", err)
	}
	return nil
}

func persistComparisonNames(ctx context.Context, db execer, feedID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	values := make([]string, 0, len(names))
	args := make([]interface{}, 0, 1+len(names))
	args = append(args, feedID)
	for i, name := range names {
		values = append(values, fmt.Sprintf("($1, $%d)", i+2))
		args = append(args, name)
	}

	query := `
INSERT INTO feed_comparison_names (feed_id, field_name)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (feed_id, field_name) DO NOTHING`

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("PersistComparisonNames: %w", err)
	}
	return nil
}

func deleteAllForFeed(ctx context.Context, db execer, feedID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM article_field_values WHERE feed_id = $1`, feedID); err != nil {
		return fmt.Errorf("DeleteAllForFeed: field values: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM feed_comparison_names WHERE feed_id = $1`, feedID); err != nil {
		return fmt.Errorf("DeleteAllForFeed: comparison names: %w", err)
	}
	return nil
}
