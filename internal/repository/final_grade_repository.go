package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// FinalGradeRepository handles persistence for computed final grades.
type FinalGradeRepository struct {
	db *sqlx.DB
}

// NewFinalGradeRepository instantiates a final-grade repository.
func NewFinalGradeRepository(db *sqlx.DB) *FinalGradeRepository {
	return &FinalGradeRepository{db: db}
}

// FindByLine loads a line's final grade, if computed.
func (r *FinalGradeRepository) FindByLine(ctx context.Context, lineID string) (*models.FinalGrade, error) {
	const query = `SELECT id, line_id, value, verdict, closed_at, closed_by, created_at, updated_at FROM final_grades WHERE line_id = $1`
	var grade models.FinalGrade
	if err := r.db.GetContext(ctx, &grade, query, lineID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert writes the final grade for a line. Re-finalization overwrites
// the previous value until the grade is sealed.
func (r *FinalGradeRepository) Upsert(ctx context.Context, grade *models.FinalGrade) error {
	now := time.Now().UTC()

	const update = `UPDATE final_grades SET value = $2, verdict = $3, updated_at = $4 WHERE line_id = $1`
	res, err := r.db.ExecContext(ctx, update, grade.LineID, grade.Value, grade.Verdict, now)
	if err != nil {
		return fmt.Errorf("update final grade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update final grade result: %w", err)
	}
	if affected > 0 {
		grade.UpdatedAt = now
		return nil
	}

	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const insert = `INSERT INTO final_grades (id, line_id, value, verdict, created_at, updated_at) VALUES (:id, :line_id, :value, :verdict, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, grade); err != nil {
		return fmt.Errorf("insert final grade: %w", err)
	}
	return nil
}

// CountMissingForAssignment counts lines under the assignment, scoped
// to active enrollments, that still lack a final grade. Acta closure
// requires zero.
func (r *FinalGradeRepository) CountMissingForAssignment(ctx context.Context, assignmentID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM enrollment_lines el
		JOIN enrollments e ON e.id = el.enrollment_id
		LEFT JOIN final_grades fg ON fg.line_id = el.id
		WHERE el.teaching_assignment_id = $1 AND e.status = 'ACTIVE' AND fg.id IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, assignmentID); err != nil {
		return 0, fmt.Errorf("count missing final grades: %w", err)
	}
	return count, nil
}

// IsLineSealed reports whether the line's final grade carries a
// closure stamp from an acta.
func (r *FinalGradeRepository) IsLineSealed(ctx context.Context, lineID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM final_grades WHERE line_id = $1 AND closed_at IS NOT NULL)`
	var sealed bool
	if err := r.db.GetContext(ctx, &sealed, query, lineID); err != nil {
		return false, fmt.Errorf("check sealed line: %w", err)
	}
	return sealed, nil
}
