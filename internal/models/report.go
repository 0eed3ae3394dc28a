package models

import "time"

// RosterRow is one student line in a teaching assignment's roster,
// including the final grade when present.
type RosterRow struct {
	LineID        string   `db:"line_id" json:"line_id"`
	StudentID     string   `db:"student_id" json:"student_id"`
	StudentCode   string   `db:"student_code" json:"student_code"`
	StudentName   string   `db:"student_name" json:"student_name"`
	AttemptNumber int      `db:"attempt_number" json:"attempt_number"`
	LineStatus    string   `db:"line_status" json:"line_status"`
	FinalGrade    *float64 `db:"final_grade" json:"final_grade,omitempty"`
	Verdict       *Verdict `db:"verdict" json:"verdict,omitempty"`
}

// AssignmentRoster groups roster rows under their assignment.
type AssignmentRoster struct {
	TeachingAssignmentID string      `json:"teaching_assignment_id"`
	Students             []RosterRow `json:"students"`
	GeneratedAt          time.Time   `json:"generated_at"`
}

// TranscriptRow is one finalized course-unit result for a student.
type TranscriptRow struct {
	PeriodName     string   `db:"period_name" json:"period_name"`
	CourseUnitCode string   `db:"course_unit_code" json:"course_unit_code"`
	CourseUnitName string   `db:"course_unit_name" json:"course_unit_name"`
	Credits        int      `db:"credits" json:"credits"`
	AttemptNumber  int      `db:"attempt_number" json:"attempt_number"`
	FinalGrade     *float64 `db:"final_grade" json:"final_grade,omitempty"`
	Verdict        *Verdict `db:"verdict" json:"verdict,omitempty"`
}

// Transcript is a student's cross-period academic record. The GPA is
// credit-weighted over rows that carry a final grade.
type Transcript struct {
	StudentID     string          `json:"student_id"`
	Rows          []TranscriptRow `json:"rows"`
	CreditsEarned int             `json:"credits_earned"`
	GPA           *float64        `json:"gpa,omitempty"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
