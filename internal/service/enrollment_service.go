package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/repository"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type enrollmentRepository interface {
	Allocate(ctx context.Context, params repository.AllocateParams) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	FindLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error)
}

type assignmentResolver interface {
	FindForCourseUnit(ctx context.Context, courseUnitID, periodID, shiftID string) (*models.TeachingAssignment, error)
}

type capacityRuleReader interface {
	FindActiveForBucket(ctx context.Context, programID string, cycle int, shiftID, periodID string) (*models.CapacityRule, error)
}

type preEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.PreEnrollment, error)
	FindLines(ctx context.Context, preEnrollmentID string) ([]models.PreEnrollmentLine, error)
}

type enrollmentAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EnrollmentLineRequest is one course-unit registration request.
type EnrollmentLineRequest struct {
	CourseUnitID  string `json:"course_unit_id" validate:"required"`
	AttemptNumber int    `json:"attempt_number" validate:"omitempty,min=1"`
}

// CreateEnrollmentRequest describes direct enrollment creation.
type CreateEnrollmentRequest struct {
	StudentID string                     `json:"student_id" validate:"required"`
	PeriodID  string                     `json:"period_id" validate:"required"`
	Cycle     int                        `json:"cycle" validate:"required,min=1"`
	ShiftID   *string                    `json:"shift_id"`
	Condition models.EnrollmentCondition `json:"condition" validate:"omitempty,oneof=REGULAR IRREGULAR REPEAT"`
	Notes     *string                    `json:"notes"`
	Lines     []EnrollmentLineRequest    `json:"lines" validate:"required,min=1,dive"`
	ActorID   string                     `json:"-"`
}

// PromoteEnrollmentRequest promotes an approved pre-enrollment.
type PromoteEnrollmentRequest struct {
	PreEnrollmentID string                     `json:"pre_enrollment_id" validate:"required"`
	Cycle           int                        `json:"cycle" validate:"required,min=1"`
	Condition       models.EnrollmentCondition `json:"condition" validate:"omitempty,oneof=REGULAR IRREGULAR REPEAT"`
	ActorID         string                     `json:"-"`
}

// UpdateEnrollmentStatusRequest switches the enrollment status.
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=ACTIVE ANNULLED FINALIZED"`
}

// EnrollmentService orchestrates enrollment allocation and lifecycle.
type EnrollmentService struct {
	repo        enrollmentRepository
	students    studentReader
	periods     periodReader
	catalog     courseUnitReader
	assignments assignmentResolver
	rules       capacityRuleReader
	preEnrolls  preEnrollmentReader
	audits      enrollmentAuditor
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, periods periodReader, catalog courseUnitReader, assignments assignmentResolver, rules capacityRuleReader, preEnrolls preEnrollmentReader, audits enrollmentAuditor, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		students:    students,
		periods:     periods,
		catalog:     catalog,
		assignments: assignments,
		rules:       rules,
		preEnrolls:  preEnrolls,
		audits:      audits,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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

// Get loads one enrollment with student and period details.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// GetLines returns the enrollment's course-unit lines.
func (s *EnrollmentService) GetLines(ctx context.Context, id string) ([]models.EnrollmentLineDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	lines, err := s.repo.FindLines(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment lines")
	}
	return lines, nil
}

// Create registers an official enrollment with its lines. Capacity
// enforcement and code generation run inside the allocation
// transaction.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
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

	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	shiftID := req.ShiftID
	if shiftID == nil {
		shiftID = student.ShiftID
	}

	lines, err := s.buildLines(ctx, req.Lines, req.PeriodID, shiftID)
	if err != nil {
		return nil, err
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionRegular
	}

	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		PeriodID:  req.PeriodID,
		Cycle:     req.Cycle,
		ShiftID:   shiftID,
		Condition: condition,
		Status:    models.EnrollmentStatusActive,
		Notes:     req.Notes,
	}

	params := repository.AllocateParams{
		Enrollment:      enrollment,
		Lines:           lines,
		PeriodName:      period.Name,
		NewStudentCycle: req.Cycle,
	}
	if student.ProgramID != nil {
		params.ProgramID = *student.ProgramID
		params.MaxEnrolled = s.resolveCapacity(ctx, *student.ProgramID, req.Cycle, shiftID, req.PeriodID)
	}

	if err := s.allocate(ctx, params, req.ActorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, enrollment.ID)
}

// Promote turns an approved pre-enrollment into an official
// enrollment. The shift comes from the first requested line, falling
// back to the student's default. Capacity rules are not checked on
// this path.
func (s *EnrollmentService) Promote(ctx context.Context, req PromoteEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	pre, err := s.preEnrolls.FindByID(ctx, req.PreEnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pre-enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pre-enrollment")
	}
	if pre.Status != models.PreEnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotApproved, "")
	}

	student, err := s.students.FindByID(ctx, pre.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	period, err := s.periods.FindByID(ctx, pre.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	preLines, err := s.preEnrolls.FindLines(ctx, pre.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pre-enrollment lines")
	}
	if len(preLines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "pre-enrollment has no lines")
	}

	shiftID := &preLines[0].ShiftID
	if *shiftID == "" {
		shiftID = student.ShiftID
	}

	lineReqs := make([]EnrollmentLineRequest, len(preLines))
	for i, line := range preLines {
		lineReqs[i] = EnrollmentLineRequest{CourseUnitID: line.CourseUnitID}
	}
	lines, err := s.buildLines(ctx, lineReqs, pre.PeriodID, shiftID)
	if err != nil {
		return nil, err
	}

	condition := req.Condition
	if condition == "" {
		condition = models.ConditionRegular
	}

	enrollment := &models.Enrollment{
		StudentID: pre.StudentID,
		PeriodID:  pre.PeriodID,
		Cycle:     req.Cycle,
		ShiftID:   shiftID,
		Condition: condition,
		Status:    models.EnrollmentStatusActive,
	}

	params := repository.AllocateParams{
		Enrollment:      enrollment,
		Lines:           lines,
		PeriodName:      period.Name,
		NewStudentCycle: req.Cycle,
	}
	if student.ProgramID != nil {
		params.ProgramID = *student.ProgramID
	}

	if err := s.allocate(ctx, params, req.ActorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, enrollment.ID)
}

// UpdateStatus switches the enrollment status unconditionally.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateEnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	return s.Get(ctx, id)
}

func (s *EnrollmentService) buildLines(ctx context.Context, reqs []EnrollmentLineRequest, periodID string, shiftID *string) ([]models.EnrollmentLine, error) {
	unitIDs := make([]string, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, line := range reqs {
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

	lines := make([]models.EnrollmentLine, len(reqs))
	for i, line := range reqs {
		attempt := line.AttemptNumber
		if attempt < 1 {
			attempt = 1
		}
		lines[i] = models.EnrollmentLine{
			CourseUnitID:  line.CourseUnitID,
			AttemptNumber: attempt,
			Status:        models.LineStatusInProgress,
		}
		if shiftID != nil && *shiftID != "" {
			assignment, err := s.assignments.FindForCourseUnit(ctx, line.CourseUnitID, periodID, *shiftID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teaching assignment")
				}
			} else {
				lines[i].TeachingAssignmentID = &assignment.ID
			}
		}
	}
	return lines, nil
}

func (s *EnrollmentService) resolveCapacity(ctx context.Context, programID string, cycle int, shiftID *string, periodID string) *int {
	if shiftID == nil || *shiftID == "" {
		return nil
	}
	rule, err := s.rules.FindActiveForBucket(ctx, programID, cycle, *shiftID, periodID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve capacity rule", zap.Error(err))
		}
		return nil
	}
	return &rule.MaxEnrolled
}

func (s *EnrollmentService) allocate(ctx context.Context, params repository.AllocateParams, actorID string) error {
	if err := s.repo.Allocate(ctx, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
		case errors.Is(err, repository.ErrCapacityReached):
			return appErrors.Clone(appErrors.ErrCapacityExceeded, "")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", params.Enrollment.ID),
		zap.String("code", params.Enrollment.Code),
		zap.String("student_id", params.Enrollment.StudentID))

	if s.audits != nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     optionalID(actorID),
			Action:     models.AuditActionEnroll,
			Resource:   "enrollment",
			ResourceID: &params.Enrollment.ID,
			NewValues:  []byte(`{"code":"` + params.Enrollment.Code + `"}`),
		}); err != nil {
			s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
		}
	}
	return nil
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
