package models

import "time"

// Acta is the irreversible closure of a teaching assignment's grade
// roster. Creation is closure; there is no draft state and no reopen.
type Acta struct {
	ID                   string    `db:"id" json:"id"`
	TeachingAssignmentID string    `db:"teaching_assignment_id" json:"teaching_assignment_id"`
	Code                 string    `db:"code" json:"code"`
	ClosedBy             string    `db:"closed_by" json:"closed_by"`
	ClosedAt             time.Time `db:"closed_at" json:"closed_at"`
}

// ActaDetail enriches an acta with assignment context.
type ActaDetail struct {
	Acta
	CourseUnitName string `db:"course_unit_name" json:"course_unit_name"`
	CourseUnitCode string `db:"course_unit_code" json:"course_unit_code"`
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	PeriodName     string `db:"period_name" json:"period_name"`
	Section        string `db:"section" json:"section"`
}

// ActaFilter narrows acta listings.
type ActaFilter struct {
	PeriodID  string
	TeacherID string
	Page      int
	PageSize  int
}

// ActaStudentRow is one sealed roster row inside an acta detail view.
type ActaStudentRow struct {
	StudentCode string     `db:"student_code" json:"student_code"`
	StudentName string     `db:"student_name" json:"student_name"`
	FinalGrade  *float64   `db:"final_grade" json:"final_grade,omitempty"`
	Verdict     *Verdict   `db:"verdict" json:"verdict,omitempty"`
	ClosedAt    *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}
