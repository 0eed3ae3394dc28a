package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// ScoreRepository handles persistence for per-criterion scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository instantiates a score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert records a score for a (line, criterion) slot, replacing any
// previous value. A NULL criterion is the single-grade slot and is
// matched with IS NOT DISTINCT FROM so it behaves like one more slot.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	now := time.Now().UTC()

	const update = `UPDATE scores SET value = $3, note = $4, recorded_by = $5, updated_at = $6 WHERE line_id = $1 AND criterion_id IS NOT DISTINCT FROM $2`
	res, err := r.db.ExecContext(ctx, update, score.LineID, score.CriterionID, score.Value, score.Note, score.RecordedBy, now)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update score result: %w", err)
	}
	if affected > 0 {
		score.UpdatedAt = now
		return nil
	}

	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	score.CreatedAt = now
	score.UpdatedAt = now
	const insert = `INSERT INTO scores (id, line_id, criterion_id, value, note, recorded_by, created_at, updated_at) VALUES (:id, :line_id, :criterion_id, :value, :note, :recorded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, score); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// FindByLine returns a line's scores joined with criterion metadata.
func (r *ScoreRepository) FindByLine(ctx context.Context, lineID string) ([]models.ScoreDetail, error) {
	const query = `
		SELECT s.id, s.line_id, s.criterion_id, s.value, s.note, s.recorded_by, s.created_at, s.updated_at,
		       ec.name AS criterion_name, ec.weight
		FROM scores s
		LEFT JOIN evaluation_criteria ec ON ec.id = s.criterion_id
		WHERE s.line_id = $1
		ORDER BY ec.position NULLS FIRST`
	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, lineID); err != nil {
		return nil, fmt.Errorf("find line scores: %w", err)
	}
	return scores, nil
}
