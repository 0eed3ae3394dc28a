package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/repository"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	allocateErr error
	lastParams  *repository.AllocateParams
	enrollments map[string]*models.Enrollment
	details     map[string]*models.EnrollmentDetail
	lines       map[string][]models.EnrollmentLineDetail
	statuses    map[string]models.EnrollmentStatus
}

func (m *mockEnrollmentRepo) Allocate(ctx context.Context, params repository.AllocateParams) error {
	m.lastParams = &params
	if m.allocateErr != nil {
		return m.allocateErr
	}
	params.Enrollment.ID = "enr-new"
	params.Enrollment.Code = "MAT-2026-I-00001"
	if m.details == nil {
		m.details = make(map[string]*models.EnrollmentDetail)
	}
	m.details["enr-new"] = &models.EnrollmentDetail{Enrollment: *params.Enrollment}
	return nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var result []models.EnrollmentDetail
	for _, d := range m.details {
		result = append(result, *d)
	}
	return result, len(result), nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.EnrollmentStatus)
	}
	m.statuses[id] = status
	if d, ok := m.details[id]; ok {
		d.Status = status
	}
	return nil
}

func (m *mockEnrollmentRepo) FindLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error) {
	return m.lines[enrollmentID], nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockPeriodReader struct {
	periods map[string]*models.Period
	active  *models.Period
}

func (m *mockPeriodReader) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodReader) FindActive(ctx context.Context) (*models.Period, error) {
	if m.active != nil {
		return m.active, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseUnitReader struct {
	units map[string]models.CourseUnit
}

func (m *mockCourseUnitReader) FindCourseUnitsByIDs(ctx context.Context, ids []string) ([]models.CourseUnit, error) {
	var result []models.CourseUnit
	for _, id := range ids {
		if unit, ok := m.units[id]; ok {
			result = append(result, unit)
		}
	}
	return result, nil
}

type mockAssignmentResolver struct {
	assignments map[string]*models.TeachingAssignment
}

func (m *mockAssignmentResolver) FindForCourseUnit(ctx context.Context, courseUnitID, periodID, shiftID string) (*models.TeachingAssignment, error) {
	if a, ok := m.assignments[courseUnitID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type mockCapacityRuleReader struct {
	rule *models.CapacityRule
}

func (m *mockCapacityRuleReader) FindActiveForBucket(ctx context.Context, programID string, cycle int, shiftID, periodID string) (*models.CapacityRule, error) {
	if m.rule == nil {
		return nil, sql.ErrNoRows
	}
	return m.rule, nil
}

type mockPreEnrollReader struct {
	pres  map[string]*models.PreEnrollment
	lines map[string][]models.PreEnrollmentLine
}

func (m *mockPreEnrollReader) FindByID(ctx context.Context, id string) (*models.PreEnrollment, error) {
	if p, ok := m.pres[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPreEnrollReader) FindLines(ctx context.Context, preEnrollmentID string) ([]models.PreEnrollmentLine, error) {
	return m.lines[preEnrollmentID], nil
}

type enrollmentFixture struct {
	svc        *EnrollmentService
	repo       *mockEnrollmentRepo
	students   *mockStudentReader
	rules      *mockCapacityRuleReader
	preEnrolls *mockPreEnrollReader
	audits     *mockAuditor
}

func newEnrollmentFixture() *enrollmentFixture {
	shiftID := "shift-m"
	programID := "prog-1"
	repo := &mockEnrollmentRepo{enrollments: map[string]*models.Enrollment{}}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Code: "S001", ProgramID: &programID, ShiftID: &shiftID, CurrentCycle: 1, Active: true},
	}}
	periods := &mockPeriodReader{periods: map[string]*models.Period{
		"per-1": {ID: "per-1", Name: "2026-I", Year: 2026},
	}}
	catalog := &mockCourseUnitReader{units: map[string]models.CourseUnit{
		"cu-1": {ID: "cu-1", Code: "MAT101", Cycle: 1, Credits: 4},
		"cu-2": {ID: "cu-2", Code: "FIS101", Cycle: 1, Credits: 3},
	}}
	assignments := &mockAssignmentResolver{assignments: map[string]*models.TeachingAssignment{
		"cu-1": {ID: "ta-1", CourseUnitID: "cu-1", PeriodID: "per-1"},
	}}
	rules := &mockCapacityRuleReader{}
	preEnrolls := &mockPreEnrollReader{
		pres: map[string]*models.PreEnrollment{
			"pre-1": {ID: "pre-1", StudentID: "stu-1", PeriodID: "per-1", Status: models.PreEnrollmentStatusApproved},
			"pre-2": {ID: "pre-2", StudentID: "stu-1", PeriodID: "per-1", Status: models.PreEnrollmentStatusPending},
		},
		lines: map[string][]models.PreEnrollmentLine{
			"pre-1": {{ID: "pl-1", PreEnrollmentID: "pre-1", CourseUnitID: "cu-1", ShiftID: "shift-m", Section: "A"}},
		},
	}
	audits := &mockAuditor{}
	svc := NewEnrollmentService(repo, students, periods, catalog, assignments, rules, preEnrolls, audits, nil, nil)
	return &enrollmentFixture{svc: svc, repo: repo, students: students, rules: rules, preEnrolls: preEnrolls, audits: audits}
}

func TestEnrollmentServiceCreate(t *testing.T) {
	f := newEnrollmentFixture()
	f.rules.rule = &models.CapacityRule{ID: "rule-1", MaxEnrolled: 40}

	detail, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     2,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}, {CourseUnitID: "cu-2"}},
		ActorID:   "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-I-00001", detail.Code)
	assert.Equal(t, models.ConditionRegular, detail.Condition)

	params := f.repo.lastParams
	require.NotNil(t, params)
	assert.Equal(t, "2026-I", params.PeriodName)
	assert.Equal(t, "prog-1", params.ProgramID)
	require.NotNil(t, params.MaxEnrolled)
	assert.Equal(t, 40, *params.MaxEnrolled)
	assert.Equal(t, 2, params.NewStudentCycle)

	require.Len(t, params.Lines, 2)
	require.NotNil(t, params.Lines[0].TeachingAssignmentID)
	assert.Equal(t, "ta-1", *params.Lines[0].TeachingAssignmentID)
	assert.Nil(t, params.Lines[1].TeachingAssignmentID)
	assert.Equal(t, 1, params.Lines[0].AttemptNumber)
	assert.Equal(t, models.LineStatusInProgress, params.Lines[0].Status)

	assert.Equal(t, []string{models.AuditActionEnroll}, f.audits.actions)
}

func TestEnrollmentServiceCreateWithoutCapacityRule(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}},
	})
	require.NoError(t, err)
	assert.Nil(t, f.repo.lastParams.MaxEnrolled)
}

func TestEnrollmentServiceCreateDuplicate(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.allocateErr = repository.ErrAlreadyEnrolled

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateCapacityReached(t *testing.T) {
	f := newEnrollmentFixture()
	f.rules.rule = &models.CapacityRule{ID: "rule-1", MaxEnrolled: 1}
	f.repo.allocateErr = repository.ErrCapacityReached

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateInactiveStudent(t *testing.T) {
	f := newEnrollmentFixture()
	f.students.students["stu-1"].Active = false

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateDuplicateCourseUnit(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-1"}, {CourseUnitID: "cu-1"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateUnknownCourseUnit(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Create(context.Background(), CreateEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Cycle:     1,
		Lines:     []EnrollmentLineRequest{{CourseUnitID: "cu-ghost"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServicePromote(t *testing.T) {
	f := newEnrollmentFixture()

	detail, err := f.svc.Promote(context.Background(), PromoteEnrollmentRequest{
		PreEnrollmentID: "pre-1",
		Cycle:           1,
		ActorID:         "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", detail.StudentID)

	params := f.repo.lastParams
	require.NotNil(t, params)
	require.NotNil(t, params.Enrollment.ShiftID)
	assert.Equal(t, "shift-m", *params.Enrollment.ShiftID)
	assert.Nil(t, params.MaxEnrolled)
	require.Len(t, params.Lines, 1)
	assert.Equal(t, "cu-1", params.Lines[0].CourseUnitID)
}

func TestEnrollmentServicePromoteNotApproved(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Promote(context.Background(), PromoteEnrollmentRequest{
		PreEnrollmentID: "pre-2",
		Cycle:           1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotApproved.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServicePromoteWithoutLines(t *testing.T) {
	f := newEnrollmentFixture()
	f.preEnrolls.lines["pre-1"] = nil

	_, err := f.svc.Promote(context.Background(), PromoteEnrollmentRequest{
		PreEnrollmentID: "pre-1",
		Cycle:           1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceUpdateStatus(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments["enr-1"] = &models.Enrollment{ID: "enr-1", Status: models.EnrollmentStatusActive}
	f.repo.details = map[string]*models.EnrollmentDetail{
		"enr-1": {Enrollment: models.Enrollment{ID: "enr-1", Status: models.EnrollmentStatusActive}},
	}

	detail, err := f.svc.UpdateStatus(context.Background(), "enr-1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatusAnnulled})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusAnnulled, detail.Status)
	assert.Equal(t, models.EnrollmentStatusAnnulled, f.repo.statuses["enr-1"])
}
