package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// PreEnrollmentRepository handles persistence for pre-enrollments and
// their requested lines.
type PreEnrollmentRepository struct {
	db *sqlx.DB
}

// NewPreEnrollmentRepository instantiates a pre-enrollment repository.
func NewPreEnrollmentRepository(db *sqlx.DB) *PreEnrollmentRepository {
	return &PreEnrollmentRepository{db: db}
}

// FindByID loads a pre-enrollment by identifier.
func (r *PreEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.PreEnrollment, error) {
	const query = `SELECT id, student_id, period_id, status, notes, created_at, updated_at FROM pre_enrollments WHERE id = $1`
	var pre models.PreEnrollment
	if err := r.db.GetContext(ctx, &pre, query, id); err != nil {
		return nil, err
	}
	return &pre, nil
}

// FindDetail loads a pre-enrollment with its student, period and lines.
func (r *PreEnrollmentRepository) FindDetail(ctx context.Context, id string) (*models.PreEnrollmentDetail, error) {
	const query = `
		SELECT pe.id, pe.student_id, pe.period_id, pe.status, pe.notes, pe.created_at, pe.updated_at,
		       st.full_name AS student_name, st.code AS student_code,
		       p.name AS period_name
		FROM pre_enrollments pe
		JOIN students st ON st.id = pe.student_id
		JOIN periods p ON p.id = pe.period_id
		WHERE pe.id = $1`
	var detail models.PreEnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}

	lines, err := r.FindLines(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Lines = lines
	return &detail, nil
}

// FindLines returns the requested lines of a pre-enrollment.
func (r *PreEnrollmentRepository) FindLines(ctx context.Context, preEnrollmentID string) ([]models.PreEnrollmentLine, error) {
	const query = `SELECT id, pre_enrollment_id, course_unit_id, shift_id, section FROM pre_enrollment_lines WHERE pre_enrollment_id = $1 ORDER BY id`
	var lines []models.PreEnrollmentLine
	if err := r.db.SelectContext(ctx, &lines, query, preEnrollmentID); err != nil {
		return nil, fmt.Errorf("find pre-enrollment lines: %w", err)
	}
	return lines, nil
}

// ExistsForStudentPeriod reports whether a pre-enrollment already
// exists for the student and period.
func (r *PreEnrollmentRepository) ExistsForStudentPeriod(ctx context.Context, studentID, periodID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM pre_enrollments WHERE student_id = $1 AND period_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, periodID); err != nil {
		return false, fmt.Errorf("check pre-enrollment existence: %w", err)
	}
	return exists, nil
}

// Create inserts a pre-enrollment and its lines in one transaction.
func (r *PreEnrollmentRepository) Create(ctx context.Context, pre *models.PreEnrollment, lines []models.PreEnrollmentLine) error {
	if pre.ID == "" {
		pre.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pre.CreatedAt = now
	pre.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pre-enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertPre = `INSERT INTO pre_enrollments (id, student_id, period_id, status, notes, created_at, updated_at) VALUES (:id, :student_id, :period_id, :status, :notes, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertPre, pre); err != nil {
		return fmt.Errorf("create pre-enrollment: %w", err)
	}

	const insertLine = `INSERT INTO pre_enrollment_lines (id, pre_enrollment_id, course_unit_id, shift_id, section) VALUES (:id, :pre_enrollment_id, :course_unit_id, :shift_id, :section)`
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].PreEnrollmentID = pre.ID
		if _, err = tx.NamedExecContext(ctx, insertLine, &lines[i]); err != nil {
			return fmt.Errorf("create pre-enrollment line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit pre-enrollment tx: %w", err)
	}
	return nil
}

// UpdateStatus sets the review status on a pre-enrollment. Transitions
// are not constrained here; administrative overrides go through the
// same path.
func (r *PreEnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.PreEnrollmentStatus, notes *string) error {
	const query = `UPDATE pre_enrollments SET status = $2, notes = COALESCE($3, notes), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update pre-enrollment status: %w", err)
	}
	return nil
}

// List returns pre-enrollments matching provided filters.
func (r *PreEnrollmentRepository) List(ctx context.Context, filter models.PreEnrollmentFilter) ([]models.PreEnrollmentDetail, int, error) {
	base := `
		FROM pre_enrollments pe
		JOIN students st ON st.id = pe.student_id
		JOIN periods p ON p.id = pe.period_id
		WHERE 1=1`
	var args []interface{}
	if filter.PeriodID != "" {
		base += fmt.Sprintf(" AND pe.period_id = $%d", len(args)+1)
		args = append(args, filter.PeriodID)
	}
	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND pe.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND pe.status = $%d", len(args)+1)
		args = append(args, filter.Status)
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
		SELECT pe.id, pe.student_id, pe.period_id, pe.status, pe.notes, pe.created_at, pe.updated_at,
		       st.full_name AS student_name, st.code AS student_code,
		       p.name AS period_name
		%s ORDER BY pe.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var items []models.PreEnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pre-enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count pre-enrollments: %w", err)
	}
	return items, total, nil
}
