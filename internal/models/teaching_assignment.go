package models

import "time"

// TeachingAssignment binds a teacher to a course unit for a period,
// shift and section. Enrollment lines route grading authority and
// roster membership through it.
type TeachingAssignment struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	CourseUnitID string    `db:"course_unit_id" json:"course_unit_id"`
	PeriodID     string    `db:"period_id" json:"period_id"`
	ShiftID      string    `db:"shift_id" json:"shift_id"`
	Section      string    `db:"section" json:"section"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TeachingAssignmentDetail enriches assignments with descriptive fields.
type TeachingAssignmentDetail struct {
	TeachingAssignment
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	CourseUnitName string `db:"course_unit_name" json:"course_unit_name"`
	CourseUnitCode string `db:"course_unit_code" json:"course_unit_code"`
	PeriodName     string `db:"period_name" json:"period_name"`
	ShiftName      string `db:"shift_name" json:"shift_name"`
}

// TeachingAssignmentFilter narrows assignment lists.
type TeachingAssignmentFilter struct {
	TeacherID    string
	CourseUnitID string
	PeriodID     string
	ShiftID      string
}
