package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// CriterionRepository handles persistence for evaluation criteria.
type CriterionRepository struct {
	db *sqlx.DB
}

// NewCriterionRepository instantiates a criterion repository.
func NewCriterionRepository(db *sqlx.DB) *CriterionRepository {
	return &CriterionRepository{db: db}
}

// FindByAssignment returns an assignment's criteria in display order.
func (r *CriterionRepository) FindByAssignment(ctx context.Context, assignmentID string) ([]models.EvaluationCriterion, error) {
	const query = `SELECT id, teaching_assignment_id, name, weight, position, created_at FROM evaluation_criteria WHERE teaching_assignment_id = $1 ORDER BY position`
	var criteria []models.EvaluationCriterion
	if err := r.db.SelectContext(ctx, &criteria, query, assignmentID); err != nil {
		return nil, fmt.Errorf("find criteria: %w", err)
	}
	return criteria, nil
}

// FindByID loads one criterion.
func (r *CriterionRepository) FindByID(ctx context.Context, id string) (*models.EvaluationCriterion, error) {
	const query = `SELECT id, teaching_assignment_id, name, weight, position, created_at FROM evaluation_criteria WHERE id = $1`
	var criterion models.EvaluationCriterion
	if err := r.db.GetContext(ctx, &criterion, query, id); err != nil {
		return nil, err
	}
	return &criterion, nil
}

// Replace swaps an assignment's criteria set in one transaction. The
// delete cascades to scores recorded against the old criteria, so a
// replace is destructive for grading progress.
func (r *CriterionRepository) Replace(ctx context.Context, assignmentID string, criteria []models.EvaluationCriterion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace criteria tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM evaluation_criteria WHERE teaching_assignment_id = $1`, assignmentID); err != nil {
		return fmt.Errorf("delete old criteria: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO evaluation_criteria (id, teaching_assignment_id, name, weight, position, created_at) VALUES (:id, :teaching_assignment_id, :name, :weight, :position, :created_at)`
	for i := range criteria {
		if criteria[i].ID == "" {
			criteria[i].ID = uuid.NewString()
		}
		criteria[i].TeachingAssignmentID = assignmentID
		criteria[i].Position = i + 1
		criteria[i].CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, &criteria[i]); err != nil {
			return fmt.Errorf("insert criterion: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace criteria tx: %w", err)
	}
	return nil
}
