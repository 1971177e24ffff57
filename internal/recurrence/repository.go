package recurrence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granite-erp/granite/internal/platform/db"
)

// Repository persists recurring patterns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const patternSelect = `SELECT id, name, template_entry_id, frequency, interval, day_of_month, weekday,
start_date, end_date, last_generated, next_generation, is_active, created_at, updated_at
FROM recurring_patterns`

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil {
		return errors.New("recurrence repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// ListDue returns active patterns whose next generation date has come due.
func (r *Repository) ListDue(ctx context.Context, asOf time.Time) ([]Pattern, error) {
	rows, err := r.pool.Query(ctx, patternSelect+` WHERE is_active AND next_generation IS NOT NULL AND next_generation <= $1 ORDER BY next_generation, id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// ListPatterns returns every registered pattern.
func (r *Repository) ListPatterns(ctx context.Context) ([]Pattern, error) {
	rows, err := r.pool.Query(ctx, patternSelect+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// InsertPattern registers a new pattern; the first generation is due
// at the start date.
func (r *Repository) InsertPattern(ctx context.Context, in CreatePatternInput) (Pattern, error) {
	var weekday *int
	if in.Weekday != nil {
		wd := int(*in.Weekday)
		weekday = &wd
	}
	pattern := Pattern{
		Name:            in.Name,
		TemplateEntryID: in.TemplateEntryID,
		Frequency:       in.Frequency,
		Interval:        in.Interval,
		DayOfMonth:      in.DayOfMonth,
		Weekday:         in.Weekday,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		IsActive:        true,
	}
	next := in.StartDate
	pattern.NextGeneration = &next
	err := r.pool.QueryRow(ctx, `INSERT INTO recurring_patterns
(name, template_entry_id, frequency, interval, day_of_month, weekday, start_date, end_date, next_generation, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$7,TRUE) RETURNING id, created_at, updated_at`,
		in.Name, in.TemplateEntryID, in.Frequency, in.Interval, in.DayOfMonth, weekday, in.StartDate, in.EndDate).
		Scan(&pattern.ID, &pattern.CreatedAt, &pattern.UpdatedAt)
	if err != nil {
		return Pattern{}, err
	}
	return pattern, nil
}

// UpdateAfterGeneration records a successful generation and the new
// schedule state inside the caller's transaction.
func (r *Repository) UpdateAfterGeneration(ctx context.Context, tx pgx.Tx, patternID int64, last time.Time, next *time.Time, active bool) error {
	cmd, err := tx.Exec(ctx, `UPDATE recurring_patterns SET last_generated=$2, next_generation=$3, is_active=$4, updated_at=NOW() WHERE id=$1`,
		patternID, last, next, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPatternNotFound
	}
	return nil
}

// Deactivate switches a pattern off without touching its schedule history.
func (r *Repository) Deactivate(ctx context.Context, patternID int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE recurring_patterns SET is_active=FALSE, next_generation=NULL, updated_at=NOW() WHERE id=$1`, patternID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPatternNotFound
	}
	return nil
}

func scanPatterns(rows pgx.Rows) ([]Pattern, error) {
	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		var weekday *int
		if err := rows.Scan(&p.ID, &p.Name, &p.TemplateEntryID, &p.Frequency, &p.Interval, &p.DayOfMonth, &weekday,
			&p.StartDate, &p.EndDate, &p.LastGenerated, &p.NextGeneration, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if weekday != nil {
			wd := time.Weekday(*weekday)
			p.Weekday = &wd
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}
