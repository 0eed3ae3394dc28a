package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// Sentinel errors surfaced by the allocation transaction. Services map
// them onto API error codes.
var (
	ErrCapacityReached = errors.New("capacity reached for bucket")
	ErrAlreadyEnrolled = errors.New("student already enrolled for period")
)

// AllocateParams carries everything the allocation transaction needs.
// The enrollment code is assigned inside the transaction from the
// per-period sequence.
type AllocateParams struct {
	Enrollment *models.Enrollment
	Lines      []models.EnrollmentLine
	PeriodName string
	ProgramID  string
	// MaxEnrolled is nil when no active capacity rule covers the
	// (program, cycle, shift) bucket.
	MaxEnrolled     *int
	NewStudentCycle int
}

// EnrollmentRepository handles persistence for enrollments and their
// course-unit lines.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// bucketLockKey derives the advisory lock key for a capacity bucket.
func bucketLockKey(programID string, cycle int, shiftID string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s", programID, cycle, shiftID)
	return int64(h.Sum64())
}

// Allocate creates the enrollment, its lines and the generated code in
// a single transaction. When a capacity rule covers the bucket, the
// count-and-insert runs under a transaction-scoped advisory lock so
// two concurrent allocations cannot both pass the check.
func (r *EnrollmentRepository) Allocate(ctx context.Context, params AllocateParams) error {
	enrollment := params.Enrollment
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.EnrolledAt = now
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND period_id = $2)`, enrollment.StudentID, enrollment.PeriodID); err != nil {
		return fmt.Errorf("check duplicate enrollment: %w", err)
	}
	if exists {
		err = ErrAlreadyEnrolled
		return err
	}

	if params.MaxEnrolled != nil {
		shiftID := ""
		if enrollment.ShiftID != nil {
			shiftID = *enrollment.ShiftID
		}
		key := bucketLockKey(params.ProgramID, enrollment.Cycle, shiftID)
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
			return fmt.Errorf("acquire bucket lock: %w", err)
		}

		var occupied int
		const countQuery = `
			SELECT COUNT(*) FROM enrollments e
			JOIN students st ON st.id = e.student_id
			WHERE e.period_id = $1 AND e.cycle = $2 AND e.shift_id = $3
			  AND st.program_id = $4 AND e.status = 'ACTIVE'`
		if err = tx.GetContext(ctx, &occupied, countQuery, enrollment.PeriodID, enrollment.Cycle, enrollment.ShiftID, params.ProgramID); err != nil {
			return fmt.Errorf("count bucket enrollments: %w", err)
		}
		if occupied >= *params.MaxEnrolled {
			err = ErrCapacityReached
			return err
		}
	}

	var seq int
	const seqQuery = `
		INSERT INTO code_sequences (scope, next_value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET next_value = code_sequences.next_value + 1
		RETURNING next_value`
	if err = tx.GetContext(ctx, &seq, seqQuery, "enrollment:"+enrollment.PeriodID); err != nil {
		return fmt.Errorf("next enrollment sequence: %w", err)
	}
	enrollment.Code = fmt.Sprintf("MAT-%s-%05d", params.PeriodName, seq)

	const insertEnrollment = `INSERT INTO enrollments (id, student_id, period_id, code, cycle, shift_id, condition, status, notes, enrolled_at, updated_at) VALUES (:id, :student_id, :period_id, :code, :cycle, :shift_id, :condition, :status, :notes, :enrolled_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	const insertLine = `INSERT INTO enrollment_lines (id, enrollment_id, course_unit_id, teaching_assignment_id, attempt_number, status, created_at, updated_at) VALUES (:id, :enrollment_id, :course_unit_id, :teaching_assignment_id, :attempt_number, :status, :created_at, :updated_at)`
	for i := range params.Lines {
		if params.Lines[i].ID == "" {
			params.Lines[i].ID = uuid.NewString()
		}
		params.Lines[i].EnrollmentID = enrollment.ID
		params.Lines[i].CreatedAt = now
		params.Lines[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, insertLine, &params.Lines[i]); err != nil {
			return fmt.Errorf("create enrollment line: %w", err)
		}
	}

	if params.NewStudentCycle > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE students SET current_cycle = $2, updated_at = $3 WHERE id = $1`, enrollment.StudentID, params.NewStudentCycle, now); err != nil {
			return fmt.Errorf("advance student cycle: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit allocate tx: %w", err)
	}
	return nil
}

// FindByID loads an enrollment by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, period_id, code, cycle, shift_id, condition, status, notes, enrolled_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetail loads an enrollment joined with student and period info.
func (r *EnrollmentRepository) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `
		SELECT e.id, e.student_id, e.period_id, e.code, e.cycle, e.shift_id, e.condition, e.status, e.notes, e.enrolled_at, e.updated_at,
		       st.full_name AS student_name, st.code AS student_code,
		       p.name AS period_name,
		       s.name AS shift_name
		FROM enrollments e
		JOIN students st ON st.id = e.student_id
		JOIN periods p ON p.id = e.period_id
		LEFT JOIN shifts s ON s.id = e.shift_id
		WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByStudentPeriod returns the student's enrollment for a period.
func (r *EnrollmentRepository) FindByStudentPeriod(ctx context.Context, studentID, periodID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, period_id, code, cycle, shift_id, condition, status, notes, enrolled_at, updated_at FROM enrollments WHERE student_id = $1 AND period_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, periodID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments matching provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `
		FROM enrollments e
		JOIN students st ON st.id = e.student_id
		JOIN periods p ON p.id = e.period_id
		LEFT JOIN shifts s ON s.id = e.shift_id
		WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("e.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("st.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(st.full_name ILIKE $%d OR st.code ILIKE $%d OR e.code ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := map[string]string{
		"code":        "e.code",
		"enrolled_at": "e.enrolled_at",
		"student":     "st.full_name",
	}[filter.SortBy]
	if sortBy == "" {
		sortBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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
		SELECT e.id, e.student_id, e.period_id, e.code, e.cycle, e.shift_id, e.condition, e.status, e.notes, e.enrolled_at, e.updated_at,
		       st.full_name AS student_name, st.code AS student_code,
		       p.name AS period_name,
		       s.name AS shift_name
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)

	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets the enrollment status. Transitions are applied
// unconditionally; lifecycle policy lives with the callers.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// FindLine loads a single enrollment line.
func (r *EnrollmentRepository) FindLine(ctx context.Context, lineID string) (*models.EnrollmentLine, error) {
	const query = `SELECT id, enrollment_id, course_unit_id, teaching_assignment_id, attempt_number, status, created_at, updated_at FROM enrollment_lines WHERE id = $1`
	var line models.EnrollmentLine
	if err := r.db.GetContext(ctx, &line, query, lineID); err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLines returns the lines of an enrollment with course-unit info.
func (r *EnrollmentRepository) FindLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error) {
	const query = `
		SELECT el.id, el.enrollment_id, el.course_unit_id, el.teaching_assignment_id, el.attempt_number, el.status, el.created_at, el.updated_at,
		       cu.name AS course_unit_name, cu.code AS course_unit_code, cu.cycle, cu.credits
		FROM enrollment_lines el
		JOIN course_units cu ON cu.id = el.course_unit_id
		WHERE el.enrollment_id = $1
		ORDER BY cu.code`
	var lines []models.EnrollmentLineDetail
	if err := r.db.SelectContext(ctx, &lines, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("find enrollment lines: %w", err)
	}
	return lines, nil
}

// FindLinesByAssignment returns the lines routed through a teaching
// assignment, the grading roster for that assignment.
func (r *EnrollmentRepository) FindLinesByAssignment(ctx context.Context, assignmentID string) ([]models.EnrollmentLine, error) {
	const query = `SELECT id, enrollment_id, course_unit_id, teaching_assignment_id, attempt_number, status, created_at, updated_at FROM enrollment_lines WHERE teaching_assignment_id = $1`
	var lines []models.EnrollmentLine
	if err := r.db.SelectContext(ctx, &lines, query, assignmentID); err != nil {
		return nil, fmt.Errorf("find assignment lines: %w", err)
	}
	return lines, nil
}

// CountAttempts counts the student's prior registrations of a course
// unit, across all enrollments.
func (r *EnrollmentRepository) CountAttempts(ctx context.Context, studentID, courseUnitID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM enrollment_lines el
		JOIN enrollments e ON e.id = el.enrollment_id
		WHERE e.student_id = $1 AND el.course_unit_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, courseUnitID); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// UpdateLineStatus sets the grading state of a line.
func (r *EnrollmentRepository) UpdateLineStatus(ctx context.Context, lineID string, status models.LineStatus) error {
	const query = `UPDATE enrollment_lines SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lineID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update line status: %w", err)
	}
	return nil
}
