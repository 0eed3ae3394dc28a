package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// TeachingAssignmentRepository handles persistence for teaching
// assignments, which route grading authority.
type TeachingAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeachingAssignmentRepository instantiates an assignment repository.
func NewTeachingAssignmentRepository(db *sqlx.DB) *TeachingAssignmentRepository {
	return &TeachingAssignmentRepository{db: db}
}

// Create inserts a teaching assignment.
func (r *TeachingAssignmentRepository) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	assignment.ID = uuid.NewString()
	assignment.CreatedAt = time.Now()

	const query = `
		INSERT INTO teaching_assignments (id, teacher_id, course_unit_id, period_id, shift_id, section, created_at)
		VALUES (:id, :teacher_id, :course_unit_id, :period_id, :shift_id, :section, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("insert teaching assignment: %w", err)
	}
	return nil
}

// FindByID loads an assignment by identifier.
func (r *TeachingAssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeachingAssignment, error) {
	const query = `SELECT id, teacher_id, course_unit_id, period_id, shift_id, section, created_at FROM teaching_assignments WHERE id = $1`
	var assignment models.TeachingAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindDetail loads an assignment joined with its descriptive fields.
func (r *TeachingAssignmentRepository) FindDetail(ctx context.Context, id string) (*models.TeachingAssignmentDetail, error) {
	const query = `
		SELECT ta.id, ta.teacher_id, ta.course_unit_id, ta.period_id, ta.shift_id, ta.section, ta.created_at,
		       u.full_name AS teacher_name,
		       cu.name AS course_unit_name, cu.code AS course_unit_code,
		       p.name AS period_name,
		       s.name AS shift_name
		FROM teaching_assignments ta
		JOIN users u ON u.id = ta.teacher_id
		JOIN course_units cu ON cu.id = ta.course_unit_id
		JOIN periods p ON p.id = ta.period_id
		JOIN shifts s ON s.id = ta.shift_id
		WHERE ta.id = $1`
	var detail models.TeachingAssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns assignments matching provided filters.
func (r *TeachingAssignmentRepository) List(ctx context.Context, filter models.TeachingAssignmentFilter) ([]models.TeachingAssignmentDetail, error) {
	query := `
		SELECT ta.id, ta.teacher_id, ta.course_unit_id, ta.period_id, ta.shift_id, ta.section, ta.created_at,
		       u.full_name AS teacher_name,
		       cu.name AS course_unit_name, cu.code AS course_unit_code,
		       p.name AS period_name,
		       s.name AS shift_name
		FROM teaching_assignments ta
		JOIN users u ON u.id = ta.teacher_id
		JOIN course_units cu ON cu.id = ta.course_unit_id
		JOIN periods p ON p.id = ta.period_id
		JOIN shifts s ON s.id = ta.shift_id
		WHERE 1=1`

	var conditions []string
	var args []interface{}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.CourseUnitID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.course_unit_id = $%d", len(args)+1))
		args = append(args, filter.CourseUnitID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.ShiftID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.shift_id = $%d", len(args)+1))
		args = append(args, filter.ShiftID)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.name DESC, cu.code, ta.section"

	var assignments []models.TeachingAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

// FindForCourseUnit resolves the assignment for a course unit within a
// period and shift, if one exists.
func (r *TeachingAssignmentRepository) FindForCourseUnit(ctx context.Context, courseUnitID, periodID, shiftID string) (*models.TeachingAssignment, error) {
	const query = `SELECT id, teacher_id, course_unit_id, period_id, shift_id, section, created_at FROM teaching_assignments WHERE course_unit_id = $1 AND period_id = $2 AND shift_id = $3 LIMIT 1`
	var assignment models.TeachingAssignment
	if err := r.db.GetContext(ctx, &assignment, query, courseUnitID, periodID, shiftID); err != nil {
		return nil, err
	}
	return &assignment, nil
}
