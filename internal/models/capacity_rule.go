package models

import "time"

// CapacityRule caps simultaneous active enrollments for a
// (program, cycle, shift) bucket, optionally scoped to a period.
// Rules are checked at enrollment creation only.
type CapacityRule struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Cycle       int       `db:"cycle" json:"cycle"`
	ShiftID     string    `db:"shift_id" json:"shift_id"`
	PeriodID    *string   `db:"period_id" json:"period_id,omitempty"`
	MaxEnrolled int       `db:"max_enrolled" json:"max_enrolled"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
