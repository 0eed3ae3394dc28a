package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// CapacityRuleRepository handles persistence for enrollment
// capacity rules.
type CapacityRuleRepository struct {
	db *sqlx.DB
}

// NewCapacityRuleRepository instantiates a capacity-rule repository.
func NewCapacityRuleRepository(db *sqlx.DB) *CapacityRuleRepository {
	return &CapacityRuleRepository{db: db}
}

// List returns all capacity rules, active ones first.
func (r *CapacityRuleRepository) List(ctx context.Context) ([]models.CapacityRule, error) {
	const query = `SELECT id, program_id, cycle, shift_id, period_id, max_enrolled, active, created_at, updated_at FROM capacity_rules ORDER BY active DESC, created_at DESC`
	var rules []models.CapacityRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list capacity rules: %w", err)
	}
	return rules, nil
}

// FindByID loads a capacity rule by identifier.
func (r *CapacityRuleRepository) FindByID(ctx context.Context, id string) (*models.CapacityRule, error) {
	const query = `SELECT id, program_id, cycle, shift_id, period_id, max_enrolled, active, created_at, updated_at FROM capacity_rules WHERE id = $1`
	var rule models.CapacityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindActiveForBucket resolves the active rule covering a
// (program, cycle, shift) bucket. Period-scoped rules win over
// unscoped ones.
func (r *CapacityRuleRepository) FindActiveForBucket(ctx context.Context, programID string, cycle int, shiftID, periodID string) (*models.CapacityRule, error) {
	const query = `
		SELECT id, program_id, cycle, shift_id, period_id, max_enrolled, active, created_at, updated_at
		FROM capacity_rules
		WHERE program_id = $1 AND cycle = $2 AND shift_id = $3 AND active = TRUE
		  AND (period_id IS NULL OR period_id = $4)
		ORDER BY period_id NULLS LAST
		LIMIT 1`
	var rule models.CapacityRule
	if err := r.db.GetContext(ctx, &rule, query, programID, cycle, shiftID, periodID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a new capacity rule.
func (r *CapacityRuleRepository) Create(ctx context.Context, rule *models.CapacityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	const query = `INSERT INTO capacity_rules (id, program_id, cycle, shift_id, period_id, max_enrolled, active, created_at, updated_at) VALUES (:id, :program_id, :cycle, :shift_id, :period_id, :max_enrolled, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create capacity rule: %w", err)
	}
	return nil
}

// Update modifies an existing capacity rule.
func (r *CapacityRuleRepository) Update(ctx context.Context, rule *models.CapacityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE capacity_rules SET max_enrolled = :max_enrolled, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update capacity rule: %w", err)
	}
	return nil
}
