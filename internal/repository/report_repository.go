package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// ReportRepository runs the read-side queries behind rosters and
// transcripts.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates a report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindRoster returns the grading roster of a teaching assignment,
// joined with final grades where present.
func (r *ReportRepository) FindRoster(ctx context.Context, assignmentID string) ([]models.RosterRow, error) {
	const query = `
		SELECT el.id AS line_id, st.id AS student_id, st.code AS student_code, st.full_name AS student_name,
		       el.attempt_number, el.status AS line_status,
		       fg.value AS final_grade, fg.verdict
		FROM enrollment_lines el
		JOIN enrollments e ON e.id = el.enrollment_id
		JOIN students st ON st.id = e.student_id
		LEFT JOIN final_grades fg ON fg.line_id = el.id
		WHERE el.teaching_assignment_id = $1
		ORDER BY st.full_name`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, fmt.Errorf("find roster: %w", err)
	}
	return rows, nil
}

// FindTranscriptRows returns a student's course-unit results across
// all periods, oldest first.
func (r *ReportRepository) FindTranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `
		SELECT p.name AS period_name,
		       cu.code AS course_unit_code, cu.name AS course_unit_name, cu.credits,
		       el.attempt_number,
		       fg.value AS final_grade, fg.verdict
		FROM enrollment_lines el
		JOIN enrollments e ON e.id = el.enrollment_id
		JOIN periods p ON p.id = e.period_id
		JOIN course_units cu ON cu.id = el.course_unit_id
		LEFT JOIN final_grades fg ON fg.line_id = el.id
		WHERE e.student_id = $1
		ORDER BY p.year, p.name, cu.code`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("find transcript rows: %w", err)
	}
	return rows, nil
}
