package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
)

func TestScoreRepositoryUpsertUpdatesExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	criterionID := "crit-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scores SET value = $3, note = $4, recorded_by = $5, updated_at = $6 WHERE line_id = $1 AND criterion_id IS NOT DISTINCT FROM $2")).
		WithArgs("line-1", &criterionID, 15.0, nil, "teacher-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := &models.Score{LineID: "line-1", CriterionID: &criterionID, Value: 15, RecordedBy: "teacher-1"}
	err := repo.Upsert(context.Background(), score)
	require.NoError(t, err)
	assert.Empty(t, score.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryUpsertInsertsWhenMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scores SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scores")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := &models.Score{LineID: "line-1", Value: 12.5, RecordedBy: "teacher-1"}
	err := repo.Upsert(context.Background(), score)
	require.NoError(t, err)
	assert.NotEmpty(t, score.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByLine(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "line_id", "criterion_id", "value", "note", "recorded_by", "created_at", "updated_at", "criterion_name", "weight"}).
		AddRow("score-1", "line-1", "crit-1", 14.0, nil, "teacher-1", time.Now(), time.Now(), "Midterm", 30.0).
		AddRow("score-2", "line-1", nil, 16.0, nil, "teacher-1", time.Now(), time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN evaluation_criteria ec ON ec.id = s.criterion_id")).
		WithArgs("line-1").
		WillReturnRows(rows)

	scores, err := repo.FindByLine(context.Background(), "line-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.NotNil(t, scores[0].Weight)
	assert.Equal(t, 30.0, *scores[0].Weight)
	assert.Nil(t, scores[1].CriterionID)
	require.NoError(t, mock.ExpectationsWereMet())
}
