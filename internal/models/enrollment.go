package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusAnnulled  EnrollmentStatus = "ANNULLED"
	EnrollmentStatusFinalized EnrollmentStatus = "FINALIZED"
)

// EnrollmentCondition qualifies how the student enrolls into the cycle.
type EnrollmentCondition string

const (
	ConditionRegular   EnrollmentCondition = "REGULAR"
	ConditionIrregular EnrollmentCondition = "IRREGULAR"
	ConditionRepeat    EnrollmentCondition = "REPEAT"
)

// LineStatus represents the grading state of an enrollment line.
type LineStatus string

const (
	LineStatusInProgress LineStatus = "IN_PROGRESS"
	LineStatusPassed     LineStatus = "PASSED"
	LineStatusFailed     LineStatus = "FAILED"
)

// Enrollment is a student's official registration for a period.
// At most one exists per (student, period); the generated code is a
// display label, uniqueness lives in the primary key.
type Enrollment struct {
	ID         string              `db:"id" json:"id"`
	StudentID  string              `db:"student_id" json:"student_id"`
	PeriodID   string              `db:"period_id" json:"period_id"`
	Code       string              `db:"code" json:"code"`
	Cycle      int                 `db:"cycle" json:"cycle"`
	ShiftID    *string             `db:"shift_id" json:"shift_id,omitempty"`
	Condition  EnrollmentCondition `db:"condition" json:"condition"`
	Status     EnrollmentStatus    `db:"status" json:"status"`
	Notes      *string             `db:"notes" json:"notes,omitempty"`
	EnrolledAt time.Time           `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt  time.Time           `db:"updated_at" json:"updated_at"`
}

// EnrollmentLine is one course-unit registration within an enrollment.
// The teaching assignment may be absent until one is established for
// the course unit, period and shift.
type EnrollmentLine struct {
	ID                   string     `db:"id" json:"id"`
	EnrollmentID         string     `db:"enrollment_id" json:"enrollment_id"`
	CourseUnitID         string     `db:"course_unit_id" json:"course_unit_id"`
	TeachingAssignmentID *string    `db:"teaching_assignment_id" json:"teaching_assignment_id,omitempty"`
	AttemptNumber        int        `db:"attempt_number" json:"attempt_number"`
	Status               LineStatus `db:"status" json:"status"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and period info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string  `db:"student_name" json:"student_name"`
	StudentCode string  `db:"student_code" json:"student_code"`
	PeriodName  string  `db:"period_name" json:"period_name"`
	ShiftName   *string `db:"shift_name" json:"shift_name,omitempty"`
}

// EnrollmentLineDetail enriches a line with course-unit info.
type EnrollmentLineDetail struct {
	EnrollmentLine
	CourseUnitName string `db:"course_unit_name" json:"course_unit_name"`
	CourseUnitCode string `db:"course_unit_code" json:"course_unit_code"`
	Cycle          int    `db:"cycle" json:"cycle"`
	Credits        int    `db:"credits" json:"credits"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	PeriodID  string
	StudentID string
	ProgramID string
	Status    EnrollmentStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
