package db

import "database/sql"

// MigrateUp creates the dedup state schema. Both tables are scoped by
// feed_id; the unique constraints are what the write paths' ON CONFLICT
// clauses collide against.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_field_values (
    id                 SERIAL PRIMARY KEY,
    feed_id            TEXT NOT NULL,
    field_name         TEXT NOT NULL,
    field_hashed_value TEXT NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (feed_id, field_name, field_hashed_value)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed_comparison_names (
    id         SERIAL PRIMARY KEY,
    feed_id    TEXT NOT NULL,
    field_name TEXT NOT NULL,
    UNIQUE (feed_id, field_name)
)`); err != nil {
		return err
	}

	indexes := []string{
		// Presence checks and id-hash lookups always filter by feed
		// plus field name; the unique index covers the full triple, this
		// one covers the prefix scans.
		`CREATE INDEX IF NOT EXISTS idx_article_field_values_feed_field ON article_field_values(feed_id, field_name)`,
		// deleteAllForFeed and hasArticlesStoredForFeed filter by feed only
		`CREATE INDEX IF NOT EXISTS idx_article_field_values_feed ON article_field_values(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_comparison_names_feed ON feed_comparison_names(feed_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this deletes all dedup state, so every feed's next
// poll becomes a seed pass.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS article_field_values`,
		`DROP TABLE IF EXISTS feed_comparison_names`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
