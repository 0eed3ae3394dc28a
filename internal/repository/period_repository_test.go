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

func TestPeriodRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET is_active = FALSE")).
		WithArgs(sqlmock.AnyArg(), "per-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET is_active = TRUE")).
		WithArgs("per-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetActive(context.Background(), "per-2")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "year", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("per-1", "2026-I", 2026, time.Now(), time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM periods WHERE is_active = TRUE LIMIT 1")).
		WillReturnRows(rows)

	period, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-I", period.Name)
	assert.True(t, period.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO periods")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	period := &models.Period{Name: "2026-II", Year: 2026}
	err := repo.Create(context.Background(), period)
	require.NoError(t, err)
	assert.NotEmpty(t, period.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
