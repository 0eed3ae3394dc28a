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

type catalogRepository interface {
	FindCourseUnit(ctx context.Context, id string) (*models.CourseUnit, error)
	ListCourseUnits(ctx context.Context, studyPlanID string, cycle int) ([]models.CourseUnit, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListShifts(ctx context.Context) ([]models.Shift, error)
}

type teachingAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.TeachingAssignment) error
	FindDetail(ctx context.Context, id string) (*models.TeachingAssignmentDetail, error)
	List(ctx context.Context, filter models.TeachingAssignmentFilter) ([]models.TeachingAssignmentDetail, error)
}

// CreateTeachingAssignmentRequest binds a teacher to a course unit for
// a period, shift and section.
type CreateTeachingAssignmentRequest struct {
	TeacherID    string `json:"teacher_id" validate:"required"`
	CourseUnitID string `json:"course_unit_id" validate:"required"`
	PeriodID     string `json:"period_id" validate:"required"`
	ShiftID      string `json:"shift_id" validate:"required"`
	Section      string `json:"section" validate:"required"`
}

// CatalogService serves the catalogs consumed by enrollment.
type CatalogService struct {
	repo        catalogRepository
	assignments teachingAssignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(repo catalogRepository, assignments teachingAssignmentRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// GetCourseUnit loads one course unit.
func (s *CatalogService) GetCourseUnit(ctx context.Context, id string) (*models.CourseUnit, error) {
	unit, err := s.repo.FindCourseUnit(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course unit")
	}
	return unit, nil
}

// ListCourseUnits returns active course units for a study plan.
func (s *CatalogService) ListCourseUnits(ctx context.Context, studyPlanID string, cycle int) ([]models.CourseUnit, error) {
	units, err := s.repo.ListCourseUnits(ctx, studyPlanID, cycle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course units")
	}
	return units, nil
}

// ListPrograms returns all active programs.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.ListPrograms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// ListShifts returns all shifts.
func (s *CatalogService) ListShifts(ctx context.Context) ([]models.Shift, error) {
	shifts, err := s.repo.ListShifts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	return shifts, nil
}

// CreateTeachingAssignment registers a new assignment.
func (s *CatalogService) CreateTeachingAssignment(ctx context.Context, req CreateTeachingAssignmentRequest) (*models.TeachingAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment := &models.TeachingAssignment{
		TeacherID:    req.TeacherID,
		CourseUnitID: req.CourseUnitID,
		PeriodID:     req.PeriodID,
		ShiftID:      req.ShiftID,
		Section:      req.Section,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("teaching assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("course_unit_id", assignment.CourseUnitID))
	return assignment, nil
}

// GetTeachingAssignment loads one assignment with descriptive fields.
func (s *CatalogService) GetTeachingAssignment(ctx context.Context, id string) (*models.TeachingAssignmentDetail, error) {
	detail, err := s.assignments.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return detail, nil
}

// ListTeachingAssignments returns assignments matching filters.
func (s *CatalogService) ListTeachingAssignments(ctx context.Context, filter models.TeachingAssignmentFilter) ([]models.TeachingAssignmentDetail, error) {
	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}
