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

type capacityRuleRepository interface {
	List(ctx context.Context) ([]models.CapacityRule, error)
	FindByID(ctx context.Context, id string) (*models.CapacityRule, error)
	Create(ctx context.Context, rule *models.CapacityRule) error
	Update(ctx context.Context, rule *models.CapacityRule) error
}

// CreateCapacityRuleRequest describes a new capacity rule.
type CreateCapacityRuleRequest struct {
	ProgramID   string  `json:"program_id" validate:"required"`
	Cycle       int     `json:"cycle" validate:"required,min=1"`
	ShiftID     string  `json:"shift_id" validate:"required"`
	PeriodID    *string `json:"period_id"`
	MaxEnrolled int     `json:"max_enrolled" validate:"required,min=1"`
}

// UpdateCapacityRuleRequest adjusts an existing rule. Changing a rule
// never re-checks enrollments already created.
type UpdateCapacityRuleRequest struct {
	MaxEnrolled int  `json:"max_enrolled" validate:"required,min=1"`
	Active      bool `json:"active"`
}

// CapacityRuleService manages enrollment capacity ceilings.
type CapacityRuleService struct {
	repo      capacityRuleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCapacityRuleService constructs CapacityRuleService.
func NewCapacityRuleService(repo capacityRuleRepository, validate *validator.Validate, logger *zap.Logger) *CapacityRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityRuleService{repo: repo, validator: validate, logger: logger}
}

// List returns all capacity rules.
func (s *CapacityRuleService) List(ctx context.Context) ([]models.CapacityRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list capacity rules")
	}
	return rules, nil
}

// Create registers a new active capacity rule.
func (s *CapacityRuleService) Create(ctx context.Context, req CreateCapacityRuleRequest) (*models.CapacityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity rule payload")
	}

	rule := &models.CapacityRule{
		ProgramID:   req.ProgramID,
		Cycle:       req.Cycle,
		ShiftID:     req.ShiftID,
		PeriodID:    req.PeriodID,
		MaxEnrolled: req.MaxEnrolled,
		Active:      true,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create capacity rule")
	}
	return rule, nil
}

// Update adjusts the ceiling or active flag of a rule.
func (s *CapacityRuleService) Update(ctx context.Context, id string, req UpdateCapacityRuleRequest) (*models.CapacityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity rule payload")
	}

	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "capacity rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load capacity rule")
	}

	rule.MaxEnrolled = req.MaxEnrolled
	rule.Active = req.Active
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update capacity rule")
	}
	return rule, nil
}
