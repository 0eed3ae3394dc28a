package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
)

func TestActaRepositoryClose(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActaRepository(db)

	year := time.Now().UTC().Year()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM actas WHERE teaching_assignment_id = $1)")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollment_lines el")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO code_sequences")).
		WithArgs(fmt.Sprintf("acta:%d", year)).
		WillReturnRows(sqlmock.NewRows([]string{"next_value"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO actas")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE final_grades SET closed_at = $2, closed_by = $3")).
		WithArgs("ta-1", sqlmock.AnyArg(), "teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	acta := &models.Acta{TeachingAssignmentID: "ta-1", ClosedBy: "teacher-1"}
	err := repo.Close(context.Background(), acta)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ACTA-%d-00003", year), acta.Code)
	assert.False(t, acta.ClosedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActaRepositoryCloseAlreadyExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActaRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM actas WHERE teaching_assignment_id = $1)")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Close(context.Background(), &models.Acta{TeachingAssignmentID: "ta-1"})
	require.ErrorIs(t, err, ErrActaExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActaRepositoryCloseIncompleteGrades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActaRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM actas WHERE teaching_assignment_id = $1)")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollment_lines el")).
		WithArgs("ta-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	err := repo.Close(context.Background(), &models.Acta{TeachingAssignmentID: "ta-1"})
	require.ErrorIs(t, err, ErrGradesIncomplete)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActaRepositoryFindStudentRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActaRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_code", "student_name", "final_grade", "verdict", "closed_at"}).
		AddRow("S001", "Ana Quispe", 14.5, models.VerdictPassed, now).
		AddRow("S002", "Luis Huaman", 9.0, models.VerdictFailed, now)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN enrollment_lines el ON el.teaching_assignment_id = a.teaching_assignment_id")).
		WithArgs("acta-1").
		WillReturnRows(rows)

	result, err := repo.FindStudentRows(context.Background(), "acta-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, models.VerdictPassed, *result[0].Verdict)
	require.NoError(t, mock.ExpectationsWereMet())
}
