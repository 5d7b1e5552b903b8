package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "monitorss-articles/internal/infra/adapter/persistence/postgres"
)

func TestComparisonRepo_FindStoredNames(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM feed_comparison_names").
		WillReturnRows(sqlmock.NewRows([]string{"field_name"}).AddRow("title"))

	repo := pg.NewComparisonRepo(db)
	got, err := repo.FindStoredNames(context.Background(), "feed-1", []string{"title", "description"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComparisonRepo_FindStoredNames_EmptyInput(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewComparisonRepo(db)
	got, err := repo.FindStoredNames(context.Background(), "feed-1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
