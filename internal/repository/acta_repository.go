package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// Sentinel errors surfaced by the acta closure transaction.
var (
	ErrActaExists       = errors.New("acta already closed for assignment")
	ErrGradesIncomplete = errors.New("assignment has lines without final grades")
)

// ActaRepository handles persistence for grade actas.
type ActaRepository struct {
	db *sqlx.DB
}

// NewActaRepository instantiates an acta repository.
func NewActaRepository(db *sqlx.DB) *ActaRepository {
	return &ActaRepository{db: db}
}

// Close creates the acta and seals every final grade under the
// assignment in one transaction. The completeness check runs inside
// the transaction so a concurrent finalization cannot slip a line in
// after the check.
func (r *ActaRepository) Close(ctx context.Context, acta *models.Acta) error {
	if acta.ID == "" {
		acta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	acta.ClosedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin acta tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM actas WHERE teaching_assignment_id = $1)`, acta.TeachingAssignmentID); err != nil {
		return fmt.Errorf("check existing acta: %w", err)
	}
	if exists {
		err = ErrActaExists
		return err
	}

	var missing int
	const missingQuery = `
		SELECT COUNT(*) FROM enrollment_lines el
		JOIN enrollments e ON e.id = el.enrollment_id
		LEFT JOIN final_grades fg ON fg.line_id = el.id
		WHERE el.teaching_assignment_id = $1 AND e.status = 'ACTIVE' AND fg.id IS NULL`
	if err = tx.GetContext(ctx, &missing, missingQuery, acta.TeachingAssignmentID); err != nil {
		return fmt.Errorf("count missing grades: %w", err)
	}
	if missing > 0 {
		err = ErrGradesIncomplete
		return err
	}

	var seq int
	const seqQuery = `
		INSERT INTO code_sequences (scope, next_value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET next_value = code_sequences.next_value + 1
		RETURNING next_value`
	if err = tx.GetContext(ctx, &seq, seqQuery, fmt.Sprintf("acta:%d", now.Year())); err != nil {
		return fmt.Errorf("next acta sequence: %w", err)
	}
	acta.Code = fmt.Sprintf("ACTA-%d-%05d", now.Year(), seq)

	const insert = `INSERT INTO actas (id, teaching_assignment_id, code, closed_by, closed_at) VALUES (:id, :teaching_assignment_id, :code, :closed_by, :closed_at)`
	if _, err = tx.NamedExecContext(ctx, insert, acta); err != nil {
		return fmt.Errorf("create acta: %w", err)
	}

	const seal = `
		UPDATE final_grades SET closed_at = $2, closed_by = $3, updated_at = $2
		WHERE line_id IN (
			SELECT el.id FROM enrollment_lines el
			JOIN enrollments e ON e.id = el.enrollment_id
			WHERE el.teaching_assignment_id = $1 AND e.status = 'ACTIVE')`
	if _, err = tx.ExecContext(ctx, seal, acta.TeachingAssignmentID, now, acta.ClosedBy); err != nil {
		return fmt.Errorf("seal final grades: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit acta tx: %w", err)
	}
	return nil
}

// FindByID loads an acta by identifier.
func (r *ActaRepository) FindByID(ctx context.Context, id string) (*models.Acta, error) {
	const query = `SELECT id, teaching_assignment_id, code, closed_by, closed_at FROM actas WHERE id = $1`
	var acta models.Acta
	if err := r.db.GetContext(ctx, &acta, query, id); err != nil {
		return nil, err
	}
	return &acta, nil
}

// FindDetail loads an acta joined with assignment context.
func (r *ActaRepository) FindDetail(ctx context.Context, id string) (*models.ActaDetail, error) {
	const query = `
		SELECT a.id, a.teaching_assignment_id, a.code, a.closed_by, a.closed_at,
		       cu.name AS course_unit_name, cu.code AS course_unit_code,
		       u.full_name AS teacher_name,
		       p.name AS period_name,
		       ta.section
		FROM actas a
		JOIN teaching_assignments ta ON ta.id = a.teaching_assignment_id
		JOIN course_units cu ON cu.id = ta.course_unit_id
		JOIN users u ON u.id = ta.teacher_id
		JOIN periods p ON p.id = ta.period_id
		WHERE a.id = $1`
	var detail models.ActaDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsForAssignment reports whether an acta seals the assignment.
func (r *ActaRepository) ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM actas WHERE teaching_assignment_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, assignmentID); err != nil {
		return false, fmt.Errorf("check acta existence: %w", err)
	}
	return exists, nil
}

// List returns actas matching provided filters.
func (r *ActaRepository) List(ctx context.Context, filter models.ActaFilter) ([]models.ActaDetail, int, error) {
	base := `
		FROM actas a
		JOIN teaching_assignments ta ON ta.id = a.teaching_assignment_id
		JOIN course_units cu ON cu.id = ta.course_unit_id
		JOIN users u ON u.id = ta.teacher_id
		JOIN periods p ON p.id = ta.period_id
		WHERE 1=1`
	var args []interface{}
	if filter.PeriodID != "" {
		base += fmt.Sprintf(" AND ta.period_id = $%d", len(args)+1)
		args = append(args, filter.PeriodID)
	}
	if filter.TeacherID != "" {
		base += fmt.Sprintf(" AND ta.teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
		SELECT a.id, a.teaching_assignment_id, a.code, a.closed_by, a.closed_at,
		       cu.name AS course_unit_name, cu.code AS course_unit_code,
		       u.full_name AS teacher_name,
		       p.name AS period_name,
		       ta.section
		%s ORDER BY a.closed_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var items []models.ActaDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list actas: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count actas: %w", err)
	}
	return items, total, nil
}

// FindStudentRows returns the sealed roster rows of an acta.
func (r *ActaRepository) FindStudentRows(ctx context.Context, actaID string) ([]models.ActaStudentRow, error) {
	const query = `
		SELECT st.code AS student_code, st.full_name AS student_name,
		       fg.value AS final_grade, fg.verdict, fg.closed_at
		FROM actas a
		JOIN enrollment_lines el ON el.teaching_assignment_id = a.teaching_assignment_id
		JOIN enrollments e ON e.id = el.enrollment_id
		JOIN students st ON st.id = e.student_id
		LEFT JOIN final_grades fg ON fg.line_id = el.id
		WHERE a.id = $1
		ORDER BY st.full_name`
	var rows []models.ActaStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, actaID); err != nil {
		return nil, fmt.Errorf("find acta rows: %w", err)
	}
	return rows, nil
}
