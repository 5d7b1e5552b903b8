package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitorss-articles/internal/domain/entity"
	pg "monitorss-articles/internal/infra/adapter/persistence/postgres"
	"monitorss-articles/internal/repository"
)

func fieldRow(feedID, name, hash string, at time.Time) entity.FieldRow {
	return entity.FieldRow{FeedID: feedID, FieldName: name, HashedValue: hash, CreatedAt: at}
}

func TestFieldRepo_HasArticlesStoredForFeed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("feed-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := pg.NewFieldRepo(db)
	got, err := repo.HasArticlesStoredForFeed(context.Background(), "feed-1")
	require.NoError(t, err)
	assert.True(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_FindStoredIDHashes(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM article_field_values").
		WillReturnRows(sqlmock.NewRows([]string{"field_hashed_value"}).
			AddRow("hash-a").
			AddRow("hash-b"))

	repo := pg.NewFieldRepo(db)
	got, err := repo.FindStoredIDHashes(context.Background(), "feed-1", []string{"hash-a", "hash-b", "hash-c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hash-a", "hash-b"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_FindStoredIDHashes_EmptyInput(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewFieldRepo(db)
	got, err := repo.FindStoredIDHashes(context.Background(), "feed-1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_SomeFieldsExist(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("feed-1", "title", "hash-t", "description", "hash-d").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := pg.NewFieldRepo(db)
	got, err := repo.SomeFieldsExist(context.Background(), "feed-1", []entity.FieldPair{
		{Name: "title", HashedValue: "hash-t"},
		{Name: "description", HashedValue: "hash-d"},
	})
	require.NoError(t, err)
	assert.False(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_SomeFieldsExist_NoPairs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewFieldRepo(db)
	got, err := repo.SomeFieldsExist(context.Background(), "feed-1", nil)
	require.NoError(t, err)
	assert.False(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_PersistFields(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_field_values")).
		WithArgs("feed-1", "id", "hash-a", now, "feed-1", "title", "hash-t", now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := pg.NewFieldRepo(db)
	err := repo.PersistFields(context.Background(), []entity.FieldRow{
		fieldRow("feed-1", "id", "hash-a", now),
		fieldRow("feed-1", "title", "hash-t", now),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_PersistFields_EmptyIsNoop(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewFieldRepo(db)
	require.NoError(t, repo.PersistFields(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_InTransaction_Commits(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_field_values")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feed_comparison_names")).
		WithArgs("feed-1", "title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewFieldRepo(db)
	err := repo.InTransaction(context.Background(), func(tx repository.FieldWriter) error {
		if err := tx.PersistFields(context.Background(), []entity.FieldRow{
			fieldRow("feed-1", "id", "hash-a", now),
		}); err != nil {
			return err
		}
		return tx.PersistComparisonNames(context.Background(), "feed-1", []string{"title"})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_InTransaction_RollsBackOnError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := pg.NewFieldRepo(db)
	err := repo.InTransaction(context.Background(), func(repository.FieldWriter) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldRepo_DeleteAllForFeed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM article_field_values")).
		WithArgs("feed-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM feed_comparison_names")).
		WithArgs("feed-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewFieldRepo(db)
	require.NoError(t, repo.DeleteAllForFeed(context.Background(), "feed-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
