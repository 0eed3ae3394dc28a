package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type mockPreEnrollmentRepo struct {
	pres     map[string]*models.PreEnrollment
	details  map[string]*models.PreEnrollmentDetail
	lines    map[string][]models.PreEnrollmentLine
	existing map[string]bool
}

func preKey(studentID, periodID string) string { return studentID + "/" + periodID }

func (m *mockPreEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.PreEnrollment, error) {
	if p, ok := m.pres[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPreEnrollmentRepo) FindDetail(ctx context.Context, id string) (*models.PreEnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPreEnrollmentRepo) FindLines(ctx context.Context, preEnrollmentID string) ([]models.PreEnrollmentLine, error) {
	return m.lines[preEnrollmentID], nil
}

func (m *mockPreEnrollmentRepo) ExistsForStudentPeriod(ctx context.Context, studentID, periodID string) (bool, error) {
	return m.existing[preKey(studentID, periodID)], nil
}

func (m *mockPreEnrollmentRepo) Create(ctx context.Context, pre *models.PreEnrollment, lines []models.PreEnrollmentLine) error {
	pre.ID = "pre-new"
	if m.pres == nil {
		m.pres = make(map[string]*models.PreEnrollment)
	}
	m.pres[pre.ID] = pre
	if m.details == nil {
		m.details = make(map[string]*models.PreEnrollmentDetail)
	}
	m.details[pre.ID] = &models.PreEnrollmentDetail{PreEnrollment: *pre, Lines: lines}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[preKey(pre.StudentID, pre.PeriodID)] = true
	return nil
}

func (m *mockPreEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.PreEnrollmentStatus, notes *string) error {
	if p, ok := m.pres[id]; ok {
		p.Status = status
	}
	if d, ok := m.details[id]; ok {
		d.Status = status
		if notes != nil {
			d.Notes = notes
		}
	}
	return nil
}

func (m *mockPreEnrollmentRepo) List(ctx context.Context, filter models.PreEnrollmentFilter) ([]models.PreEnrollmentDetail, int, error) {
	var result []models.PreEnrollmentDetail
	for _, d := range m.details {
		result = append(result, *d)
	}
	return result, len(result), nil
}

func newPreEnrollmentFixture() (*PreEnrollmentService, *mockPreEnrollmentRepo) {
	repo := &mockPreEnrollmentRepo{
		pres:     map[string]*models.PreEnrollment{},
		details:  map[string]*models.PreEnrollmentDetail{},
		existing: map[string]bool{},
	}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Code: "S001", Active: true},
		"stu-2": {ID: "stu-2", Code: "S002", Active: false},
	}}
	periods := &mockPeriodReader{periods: map[string]*models.Period{
		"per-1": {ID: "per-1", Name: "2026-I"},
	}}
	catalog := &mockCourseUnitReader{units: map[string]models.CourseUnit{
		"cu-1": {ID: "cu-1", Code: "MAT101"},
	}}
	svc := NewPreEnrollmentService(repo, students, periods, catalog, nil, nil)
	return svc, repo
}

func TestPreEnrollmentServiceCreate(t *testing.T) {
	svc, _ := newPreEnrollmentFixture()

	detail, err := svc.Create(context.Background(), CreatePreEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Lines:     []PreEnrollmentLineRequest{{CourseUnitID: "cu-1", ShiftID: "shift-m", Section: "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PreEnrollmentStatusPending, detail.Status)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "cu-1", detail.Lines[0].CourseUnitID)
}

func TestPreEnrollmentServiceCreateDuplicatePeriod(t *testing.T) {
	svc, repo := newPreEnrollmentFixture()
	repo.existing[preKey("stu-1", "per-1")] = true

	_, err := svc.Create(context.Background(), CreatePreEnrollmentRequest{
		StudentID: "stu-1",
		PeriodID:  "per-1",
		Lines:     []PreEnrollmentLineRequest{{CourseUnitID: "cu-1", ShiftID: "shift-m"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPreEnrollmentServiceCreateInactiveStudent(t *testing.T) {
	svc, _ := newPreEnrollmentFixture()

	_, err := svc.Create(context.Background(), CreatePreEnrollmentRequest{
		StudentID: "stu-2",
		PeriodID:  "per-1",
		Lines:     []PreEnrollmentLineRequest{{CourseUnitID: "cu-1", ShiftID: "shift-m"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPreEnrollmentServiceReview(t *testing.T) {
	svc, repo := newPreEnrollmentFixture()
	repo.pres["pre-1"] = &models.PreEnrollment{ID: "pre-1", Status: models.PreEnrollmentStatusPending}
	repo.details["pre-1"] = &models.PreEnrollmentDetail{PreEnrollment: *repo.pres["pre-1"]}

	detail, err := svc.Review(context.Background(), "pre-1", ReviewPreEnrollmentRequest{
		Status: models.PreEnrollmentStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PreEnrollmentStatusApproved, detail.Status)
}

func TestPreEnrollmentServiceReviewInvalidStatus(t *testing.T) {
	svc, _ := newPreEnrollmentFixture()

	_, err := svc.Review(context.Background(), "pre-1", ReviewPreEnrollmentRequest{Status: "CLOSED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
