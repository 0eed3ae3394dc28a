package models

import "time"

// Score bounds and the passing cut in the 0-20 vigesimal scale.
const (
	ScoreMin     = 0.0
	ScoreMax     = 20.0
	PassingGrade = 13.0
)

// Verdict is the pass/fail outcome of a finalized line.
type Verdict string

const (
	VerdictPassed Verdict = "PASSED"
	VerdictFailed Verdict = "FAILED"
)

// EvaluationCriterion is a named, weighted component of a teaching
// assignment's evaluation scheme. Replacing an assignment's criteria
// is a destructive overwrite.
type EvaluationCriterion struct {
	ID                   string    `db:"id" json:"id"`
	TeachingAssignmentID string    `db:"teaching_assignment_id" json:"teaching_assignment_id"`
	Name                 string    `db:"name" json:"name"`
	Weight               float64   `db:"weight" json:"weight"`
	Position             int       `db:"position" json:"position"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Score is a per-criterion grade entry for an enrollment line.
// A NULL criterion is the single-grade slot and is unique per line
// like any other criterion.
type Score struct {
	ID          string    `db:"id" json:"id"`
	LineID      string    `db:"line_id" json:"line_id"`
	CriterionID *string   `db:"criterion_id" json:"criterion_id,omitempty"`
	Value       float64   `db:"value" json:"value"`
	Note        *string   `db:"note" json:"note,omitempty"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreDetail joins the criterion metadata used for weighting.
type ScoreDetail struct {
	Score
	CriterionName *string  `db:"criterion_name" json:"criterion_name,omitempty"`
	Weight        *float64 `db:"weight" json:"weight,omitempty"`
}

// FinalGrade is the computed, authoritative grade for a line. It stays
// mutable through re-finalization until an acta seals it.
type FinalGrade struct {
	ID        string     `db:"id" json:"id"`
	LineID    string     `db:"line_id" json:"line_id"`
	Value     float64    `db:"value" json:"value"`
	Verdict   Verdict    `db:"verdict" json:"verdict"`
	ClosedAt  *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy  *string    `db:"closed_by" json:"closed_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
