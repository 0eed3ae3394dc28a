package models

import "time"

// Student places a person in a program, study plan, shift and cycle.
// Administration owns the record; enrollment only references it and
// advances the current cycle pointer.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	FullName     string    `db:"full_name" json:"full_name"`
	Document     string    `db:"document" json:"document"`
	Email        *string   `db:"email" json:"email,omitempty"`
	ProgramID    *string   `db:"program_id" json:"program_id,omitempty"`
	StudyPlanID  *string   `db:"study_plan_id" json:"study_plan_id,omitempty"`
	ShiftID      *string   `db:"shift_id" json:"shift_id,omitempty"`
	CurrentCycle int       `db:"current_cycle" json:"current_cycle"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
