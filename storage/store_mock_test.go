package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// Failure paths that a healthy in-memory database never produces are pinned
// with sqlmock.

func TestUpsertRecipe_RollsBackOnIngredientFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewStore(mockDB, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO recipes_corpus").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM recipe_ingredients_norm").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT OR REPLACE INTO recipe_ingredients_norm").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	r := types.Recipe{
		SourceRef:   "r-1",
		Title:       "Борщ",
		Ingredients: []string{"Свёкла"},
	}
	err = store.UpsertRecipe("scraper", r, 0.5, types.LicenseRiskLow, time.Now())
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProduct_PropagatesExecError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewStore(mockDB, nil)

	mock.ExpectExec("INSERT INTO products_master").
		WillReturnError(errors.New("database is locked"))

	err = store.UpsertProduct("offdump", types.Product{SourceRef: "1", Name: "x"}, 0.5, types.LicenseRiskLow, time.Now())
	assert.ErrorContains(t, err, "upsert product offdump:1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteRun_ZeroRowsAffected(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewStore(mockDB, nil)

	mock.ExpectExec("UPDATE ingestion_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.CompleteRun("run-x", types.RunStatusSuccess, time.Now(), &types.RunSummary{})
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
