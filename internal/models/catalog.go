package models

import "time"

// CourseUnit is a teachable unit inside a study plan.
type CourseUnit struct {
	ID          string    `db:"id" json:"id"`
	StudyPlanID string    `db:"study_plan_id" json:"study_plan_id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Cycle       int       `db:"cycle" json:"cycle"`
	Credits     int       `db:"credits" json:"credits"`
	TheoryHours int       `db:"theory_hours" json:"theory_hours"`
	LabHours    int       `db:"lab_hours" json:"lab_hours"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Shift is a catalog entry for teaching shifts (morning, evening, ...).
type Shift struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Program is a study program offered by the institution.
type Program struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
