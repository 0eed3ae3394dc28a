package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type preEnrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.PreEnrollment, error)
	FindDetail(ctx context.Context, id string) (*models.PreEnrollmentDetail, error)
	FindLines(ctx context.Context, preEnrollmentID string) ([]models.PreEnrollmentLine, error)
	ExistsForStudentPeriod(ctx context.Context, studentID, periodID string) (bool, error)
	Create(ctx context.Context, pre *models.PreEnrollment, lines []models.PreEnrollmentLine) error
	UpdateStatus(ctx context.Context, id string, status models.PreEnrollmentStatus, notes *string) error
	List(ctx context.Context, filter models.PreEnrollmentFilter) ([]models.PreEnrollmentDetail, int, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindActive(ctx context.Context) (*models.Period, error)
}

type courseUnitReader interface {
	FindCourseUnitsByIDs(ctx context.Context, ids []string) ([]models.CourseUnit, error)
}

// PreEnrollmentLineRequest is one requested course-unit/shift pair.
type PreEnrollmentLineRequest struct {
	CourseUnitID string `json:"course_unit_id" validate:"required"`
	ShiftID      string `json:"shift_id" validate:"required"`
	Section      string `json:"section"`
}

// CreatePreEnrollmentRequest declares a student's intent for a period.
type CreatePreEnrollmentRequest struct {
	StudentID string                     `json:"student_id" validate:"required"`
	PeriodID  string                     `json:"period_id" validate:"required"`
	Notes     *string                    `json:"notes"`
	Lines     []PreEnrollmentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReviewPreEnrollmentRequest resolves a pre-enrollment.
type ReviewPreEnrollmentRequest struct {
	Status models.PreEnrollmentStatus `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
	Notes  *string                    `json:"notes"`
}

// PreEnrollmentService manages intent declarations before official
// enrollment.
type PreEnrollmentService struct {
	repo      preEnrollmentRepository
	students  studentReader
	periods   periodReader
	catalog   courseUnitReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreEnrollmentService constructs PreEnrollmentService.
func NewPreEnrollmentService(repo preEnrollmentRepository, students studentReader, periods periodReader, catalog courseUnitReader, validate *validator.Validate, logger *zap.Logger) *PreEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreEnrollmentService{repo: repo, students: students, periods: periods, catalog: catalog, validator: validate, logger: logger}
}

// List returns pre-enrollments with pagination metadata.
func (s *PreEnrollmentService) List(ctx context.Context, filter models.PreEnrollmentFilter) ([]models.PreEnrollmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pre-enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return items, pagination, nil
}

// Get loads a pre-enrollment with its requested lines.
func (s *PreEnrollmentService) Get(ctx context.Context, id string) (*models.PreEnrollmentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pre-enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pre-enrollment")
	}
	return detail, nil
}

// Create registers a new PENDING pre-enrollment with its lines.
func (s *PreEnrollmentService) Create(ctx context.Context, req CreatePreEnrollmentRequest) (*models.PreEnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pre-enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}

	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	exists, err := s.repo.ExistsForStudentPeriod(ctx, req.StudentID, req.PeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate pre-enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pre-enrollment already exists for student and period")
	}

	unitIDs := make([]string, 0, len(req.Lines))
	seen := make(map[string]bool, len(req.Lines))
	for _, line := range req.Lines {
		if seen[line.CourseUnitID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate course unit in request")
		}
		seen[line.CourseUnitID] = true
		unitIDs = append(unitIDs, line.CourseUnitID)
	}
	units, err := s.catalog.FindCourseUnitsByIDs(ctx, unitIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course units")
	}
	if len(units) != len(unitIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more course units not found")
	}

	pre := &models.PreEnrollment{
		StudentID: req.StudentID,
		PeriodID:  req.PeriodID,
		Status:    models.PreEnrollmentStatusPending,
		Notes:     req.Notes,
	}
	lines := make([]models.PreEnrollmentLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = models.PreEnrollmentLine{
			CourseUnitID: line.CourseUnitID,
			ShiftID:      line.ShiftID,
			Section:      line.Section,
		}
	}

	if err := s.repo.Create(ctx, pre, lines); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pre-enrollment")
	}

	return s.Get(ctx, pre.ID)
}

// Review resolves the pre-enrollment status. Moving back to PENDING is
// allowed as an administrative override and never touches enrollments
// already created from an earlier approval.
func (s *PreEnrollmentService) Review(ctx context.Context, id string, req ReviewPreEnrollmentRequest) (*models.PreEnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pre-enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pre-enrollment")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pre-enrollment")
	}

	return s.Get(ctx, id)
}
