package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryAllocate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	shiftID := "shift-m"
	enrollment := &models.Enrollment{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     2,
		ShiftID:   &shiftID,
		Condition: models.ConditionRegular,
		Status:    models.EnrollmentStatusActive,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND period_id = $2)")).
		WithArgs("stu-1", "per-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO code_sequences")).
		WithArgs("enrollment:per-1").
		WillReturnRows(sqlmock.NewRows([]string{"next_value"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET current_cycle")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Allocate(context.Background(), AllocateParams{
		Enrollment:      enrollment,
		Lines:           []models.EnrollmentLine{{CourseUnitID: "cu-1", AttemptNumber: 1, Status: models.LineStatusInProgress}},
		PeriodName:      "2026-I",
		ProgramID:       "prog-1",
		NewStudentCycle: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-I-00007", enrollment.Code)
	assert.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAllocateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND period_id = $2)")).
		WithArgs("stu-1", "per-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Allocate(context.Background(), AllocateParams{
		Enrollment: &models.Enrollment{StudentID: "stu-1", PeriodID: "per-1", Cycle: 1},
		PeriodName: "2026-I",
	})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAllocateCapacityReached(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	shiftID := "shift-m"
	max := 40
	lockKey := bucketLockKey("prog-1", 1, "shift-m")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND period_id = $2)")).
		WithArgs("stu-1", "per-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(lockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs("per-1", 1, "shift-m", "prog-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))
	mock.ExpectRollback()

	err := repo.Allocate(context.Background(), AllocateParams{
		Enrollment:  &models.Enrollment{StudentID: "stu-1", PeriodID: "per-1", Cycle: 1, ShiftID: &shiftID},
		PeriodName:  "2026-I",
		ProgramID:   "prog-1",
		MaxEnrolled: &max,
	})
	require.ErrorIs(t, err, ErrCapacityReached)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAllocateUnderCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	shiftID := "shift-m"
	max := 40
	enrollment := &models.Enrollment{StudentID: "stu-1", PeriodID: "per-1", Cycle: 1, ShiftID: &shiftID, Status: models.EnrollmentStatusActive}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND period_id = $2)")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(39))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO code_sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"next_value"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Allocate(context.Background(), AllocateParams{
		Enrollment:  enrollment,
		PeriodName:  "2026-I",
		ProgramID:   "prog-1",
		MaxEnrolled: &max,
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-I-00001", enrollment.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "period_id", "code", "cycle", "shift_id", "condition", "status", "notes", "enrolled_at", "updated_at"}).
		AddRow("enr-1", "stu-1", "per-1", "MAT-2026-I-00001", 1, nil, models.ConditionRegular, models.EnrollmentStatusActive, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_id, code, cycle, shift_id, condition, status, notes, enrolled_at, updated_at FROM enrollments WHERE id = $1")).
		WithArgs("enr-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByID(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-I-00001", enrollment.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateLineStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_lines SET status = $2")).
		WithArgs("line-1", models.LineStatusPassed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLineStatus(context.Background(), "line-1", models.LineStatusPassed)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
