package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// CatalogRepository exposes read access to the shared catalogs:
// course units, programs and shifts.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository instantiates a catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCourseUnit loads a course unit by identifier.
func (r *CatalogRepository) FindCourseUnit(ctx context.Context, id string) (*models.CourseUnit, error) {
	const query = `SELECT id, study_plan_id, code, name, cycle, credits, theory_hours, lab_hours, active, created_at FROM course_units WHERE id = $1`
	var unit models.CourseUnit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListCourseUnits returns course units for a study plan, optionally
// limited to one cycle.
func (r *CatalogRepository) ListCourseUnits(ctx context.Context, studyPlanID string, cycle int) ([]models.CourseUnit, error) {
	query := `SELECT id, study_plan_id, code, name, cycle, credits, theory_hours, lab_hours, active, created_at FROM course_units WHERE study_plan_id = $1 AND active = TRUE`
	args := []interface{}{studyPlanID}
	if cycle > 0 {
		query += fmt.Sprintf(" AND cycle = $%d", len(args)+1)
		args = append(args, cycle)
	}
	query += " ORDER BY cycle, code"

	var units []models.CourseUnit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, fmt.Errorf("list course units: %w", err)
	}
	return units, nil
}

// FindCourseUnitsByIDs loads the given course units in one query.
func (r *CatalogRepository) FindCourseUnitsByIDs(ctx context.Context, ids []string) ([]models.CourseUnit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, study_plan_id, code, name, cycle, credits, theory_hours, lab_hours, active, created_at FROM course_units WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	var units []models.CourseUnit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, fmt.Errorf("find course units: %w", err)
	}
	return units, nil
}

// ListPrograms returns all active programs.
func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, code, name, active, created_at FROM programs WHERE active = TRUE ORDER BY name`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// ListShifts returns all shifts.
func (r *CatalogRepository) ListShifts(ctx context.Context) ([]models.Shift, error) {
	const query = `SELECT id, name FROM shifts ORDER BY name`
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}
