package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigea-edu/sigea-api/internal/models"
)

// PeriodRepository handles persistence for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns periods matching provided filters.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error) {
	base := "FROM periods WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"year":       true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, year, start_date, end_date, is_active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list periods: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count periods: %w", err)
	}

	return periods, total, nil
}

// FindByID loads a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, name, year, start_date, end_date, is_active, created_at, updated_at FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindActive returns the currently active period.
func (r *PeriodRepository) FindActive(ctx context.Context) (*models.Period, error) {
	const query = `SELECT id, name, year, start_date, end_date, is_active, created_at, updated_at FROM periods WHERE is_active = TRUE LIMIT 1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create inserts a new period record.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO periods (id, name, year, start_date, end_date, is_active, created_at, updated_at) VALUES (:id, :name, :year, :start_date, :end_date, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// Update modifies an existing period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE periods SET name = :name, year = :year, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

// SetActive marks the provided period as active and deactivates the
// rest in one transaction, so there is never a window with zero or
// multiple active periods.
func (r *PeriodRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE periods SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate other periods: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE periods SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("activate period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set active tx: %w", err)
	}
	return nil
}

// CountEnrollments returns the number of enrollments referencing the period.
func (r *PeriodRepository) CountEnrollments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE period_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count period enrollments: %w", err)
	}
	return count, nil
}
