package models

import "time"

// Period models an academic period within the institution calendar.
// At most one period is active system-wide at any time.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodFilter defines filters supported by list endpoints.
type PeriodFilter struct {
	Year      int
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
