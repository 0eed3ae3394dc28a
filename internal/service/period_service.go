package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigea-edu/sigea-api/internal/models"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindActive(ctx context.Context) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	SetActive(ctx context.Context, id string) error
	CountEnrollments(ctx context.Context, id string) (int, error)
}

// CreatePeriodRequest describes a new academic period.
type CreatePeriodRequest struct {
	Name      string    `json:"name" validate:"required"`
	Year      int       `json:"year" validate:"required,min=2000"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// UpdatePeriodRequest describes period updates.
type UpdatePeriodRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// PeriodService manages the academic period calendar.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns periods with pagination metadata.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
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
	return periods, pagination, nil
}

// Get loads one period.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// GetActive returns the currently active period.
func (s *PeriodService) GetActive(ctx context.Context) (*models.Period, error) {
	period, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}
	return period, nil
}

// Create registers a new period. New periods start inactive.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	period := &models.Period{
		Name:      req.Name,
		Year:      req.Year,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  false,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	return period, nil
}

// Update modifies a period's descriptive fields.
func (s *PeriodService) Update(ctx context.Context, id string, req UpdatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	period.Name = req.Name
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

// Activate makes the period the single active one. The swap happens in
// one transaction inside the repository.
func (s *PeriodService) Activate(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate period")
	}

	s.logger.Info("period activated", zap.String("period_id", id), zap.String("name", period.Name))
	period.IsActive = true
	return period, nil
}
