package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// StudentRepository exposes read access to the student catalog plus
// the cycle advancement used after enrollment.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, code, full_name, document, email, program_id, study_plan_id, shift_id, current_cycle, active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByCode loads a student by institutional code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	const query = `SELECT id, code, full_name, document, email, program_id, study_plan_id, shift_id, current_cycle, active, created_at, updated_at FROM students WHERE code = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateCurrentCycle moves the student's cycle pointer.
func (r *StudentRepository) UpdateCurrentCycle(ctx context.Context, id string, cycle int) error {
	const query = `UPDATE students SET current_cycle = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, cycle, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student cycle: %w", err)
	}
	return nil
}
