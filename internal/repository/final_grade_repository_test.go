package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
)

func TestFinalGradeRepositoryUpsertOverwrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_grades SET value = $2, verdict = $3")).
		WithArgs("line-1", 13.6, models.VerdictPassed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := &models.FinalGrade{LineID: "line-1", Value: 13.6, Verdict: models.VerdictPassed}
	err := repo.Upsert(context.Background(), grade)
	require.NoError(t, err)
	assert.Empty(t, grade.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryUpsertInsertsFirstGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_grades SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO final_grades")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := &models.FinalGrade{LineID: "line-1", Value: 10.5, Verdict: models.VerdictFailed}
	err := repo.Upsert(context.Background(), grade)
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryCountMissingForAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND e.status = 'ACTIVE' AND fg.id IS NULL")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountMissingForAssignment(context.Background(), "ta-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalGradeRepositoryIsLineSealed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinalGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("closed_at IS NOT NULL")).
		WithArgs("line-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	sealed, err := repo.IsLineSealed(context.Background(), "line-1")
	require.NoError(t, err)
	assert.True(t, sealed)
	require.NoError(t, mock.ExpectationsWereMet())
}
