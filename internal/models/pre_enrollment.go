package models

import "time"

// PreEnrollmentStatus represents the lifecycle of a pre-enrollment.
type PreEnrollmentStatus string

// Possible pre-enrollment statuses. Only APPROVED may be promoted to
// an official enrollment; re-entry to PENDING is an administrative
// override and never affects enrollments already created.
const (
	PreEnrollmentStatusPending  PreEnrollmentStatus = "PENDING"
	PreEnrollmentStatusApproved PreEnrollmentStatus = "APPROVED"
	PreEnrollmentStatusRejected PreEnrollmentStatus = "REJECTED"
)

// PreEnrollment is a student's declared intent to take a set of course
// units for a period, before official validation. Unique per
// (student, period).
type PreEnrollment struct {
	ID        string              `db:"id" json:"id"`
	StudentID string              `db:"student_id" json:"student_id"`
	PeriodID  string              `db:"period_id" json:"period_id"`
	Status    PreEnrollmentStatus `db:"status" json:"status"`
	Notes     *string             `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// PreEnrollmentLine is one requested course-unit/shift pair.
type PreEnrollmentLine struct {
	ID              string `db:"id" json:"id"`
	PreEnrollmentID string `db:"pre_enrollment_id" json:"pre_enrollment_id"`
	CourseUnitID    string `db:"course_unit_id" json:"course_unit_id"`
	ShiftID         string `db:"shift_id" json:"shift_id"`
	Section         string `db:"section" json:"section"`
}

// PreEnrollmentDetail enriches a pre-enrollment with student and
// period info plus its requested lines.
type PreEnrollmentDetail struct {
	PreEnrollment
	StudentName string              `db:"student_name" json:"student_name"`
	StudentCode string              `db:"student_code" json:"student_code"`
	PeriodName  string              `db:"period_name" json:"period_name"`
	Lines       []PreEnrollmentLine `json:"lines,omitempty"`
}

// PreEnrollmentFilter provides filters for listing pre-enrollments.
type PreEnrollmentFilter struct {
	PeriodID  string
	StudentID string
	Status    PreEnrollmentStatus
	Page      int
	PageSize  int
}
