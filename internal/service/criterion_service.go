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

type criterionRepository interface {
	FindByAssignment(ctx context.Context, assignmentID string) ([]models.EvaluationCriterion, error)
	Replace(ctx context.Context, assignmentID string, criteria []models.EvaluationCriterion) error
}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.TeachingAssignment, error)
}

type actaChecker interface {
	ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error)
}

// CriterionRequest is one criterion of a replacement set.
type CriterionRequest struct {
	Name   string   `json:"name" validate:"required"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0"`
}

// ReplaceCriteriaRequest swaps an assignment's criteria set.
type ReplaceCriteriaRequest struct {
	Criteria []CriterionRequest `json:"criteria" validate:"required,min=1,dive"`
}

// CriterionService manages evaluation criteria for teaching
// assignments.
type CriterionService struct {
	repo        criterionRepository
	assignments assignmentReader
	actas       actaChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCriterionService constructs CriterionService.
func NewCriterionService(repo criterionRepository, assignments assignmentReader, actas actaChecker, validate *validator.Validate, logger *zap.Logger) *CriterionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CriterionService{repo: repo, assignments: assignments, actas: actas, validator: validate, logger: logger}
}

// List returns an assignment's criteria in display order.
func (s *CriterionService) List(ctx context.Context, assignmentID string) ([]models.EvaluationCriterion, error) {
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	criteria, err := s.repo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
	}
	return criteria, nil
}

// Replace swaps the assignment's criteria set. The replace deletes all
// prior criteria and cascades to their scores, so grading progress for
// the assignment is lost. Closed assignments reject the replace.
func (s *CriterionService) Replace(ctx context.Context, assignmentID string, req ReplaceCriteriaRequest) ([]models.EvaluationCriterion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid criteria payload")
	}

	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	closed, err := s.actas.ExistsForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check acta")
	}
	if closed {
		return nil, appErrors.Clone(appErrors.ErrSealed, "assignment records are closed")
	}

	criteria := make([]models.EvaluationCriterion, len(req.Criteria))
	for i, c := range req.Criteria {
		weight := 1.0
		if c.Weight != nil {
			weight = *c.Weight
		}
		criteria[i] = models.EvaluationCriterion{Name: c.Name, Weight: weight}
	}

	if err := s.repo.Replace(ctx, assignmentID, criteria); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace criteria")
	}

	s.logger.Info("criteria replaced", zap.String("teaching_assignment_id", assignmentID), zap.Int("count", len(criteria)))
	return criteria, nil
}
