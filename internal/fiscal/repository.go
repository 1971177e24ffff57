package fiscal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granite-erp/granite/internal/platform/db"
)

// Repository persists fiscal calendar entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional fiscal calendar operations.
type TxRepository interface {
	YearNameExists(ctx context.Context, name string) (bool, error)
	YearRangeOverlaps(ctx context.Context, start, end time.Time) (bool, error)
	InsertYear(ctx context.Context, in CreateYearInput) (Year, error)
	InsertPeriods(ctx context.Context, yearID int64, periods []Period) ([]Period, error)
	PeriodsOfTypeExist(ctx context.Context, yearID int64, kind PeriodType) (bool, error)
	GetYearForUpdate(ctx context.Context, yearID int64) (Year, error)
	GetPeriodForUpdate(ctx context.Context, periodID int64) (Period, error)
	UpdatePeriodStatus(ctx context.Context, periodID int64, status PeriodStatus) error
	OpenPeriodNames(ctx context.Context, yearID int64) ([]string, error)
	MarkYearClosed(ctx context.Context, yearID int64, actor string, at time.Time) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("fiscal repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) YearNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM fiscal_years WHERE name=$1)`, name).Scan(&exists)
	return exists, err
}

func (r *txRepository) YearRangeOverlaps(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM fiscal_years WHERE start_date <= $2 AND end_date >= $1)`, start, end).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertYear(ctx context.Context, in CreateYearInput) (Year, error) {
	year := Year{Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate}
	err := r.tx.QueryRow(ctx, `INSERT INTO fiscal_years (name, start_date, end_date) VALUES ($1,$2,$3)
RETURNING id, created_at, updated_at`, in.Name, in.StartDate, in.EndDate).
		Scan(&year.ID, &year.CreatedAt, &year.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Year{}, ErrYearExists
		}
		return Year{}, err
	}
	return year, nil
}

func (r *txRepository) InsertPeriods(ctx context.Context, yearID int64, periods []Period) ([]Period, error) {
	out := make([]Period, 0, len(periods))
	for _, p := range periods {
		row := r.tx.QueryRow(ctx, `INSERT INTO fiscal_periods (year_id, name, period_type, period_number, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
			yearID, p.Name, p.Type, p.Number, p.StartDate, p.EndDate, p.Status)
		inserted := p
		inserted.YearID = yearID
		if err := row.Scan(&inserted.ID, &inserted.CreatedAt, &inserted.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) PeriodsOfTypeExist(ctx context.Context, yearID int64, kind PeriodType) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM fiscal_periods WHERE year_id=$1 AND period_type=$2)`, yearID, kind).Scan(&exists)
	return exists, err
}

func (r *txRepository) GetYearForUpdate(ctx context.Context, yearID int64) (Year, error) {
	var y Year
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_closed, closed_by, closed_at, created_at, updated_at
FROM fiscal_years WHERE id=$1 FOR UPDATE`, yearID).
		Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsClosed, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Year{}, ErrYearNotFound
		}
		return Year{}, err
	}
	return y, nil
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (Period, error) {
	var p Period
	err := r.tx.QueryRow(ctx, `SELECT id, year_id, name, period_type, period_number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE id=$1 FOR UPDATE`, periodID).
		Scan(&p.ID, &p.YearID, &p.Name, &p.Type, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) UpdatePeriodStatus(ctx context.Context, periodID int64, status PeriodStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_periods SET status=$2, updated_at=NOW() WHERE id=$1`, periodID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *txRepository) OpenPeriodNames(ctx context.Context, yearID int64) ([]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT name FROM fiscal_periods WHERE year_id=$1 AND status=$2 ORDER BY period_number`, yearID, PeriodStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *txRepository) MarkYearClosed(ctx context.Context, yearID int64, actor string, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET is_closed=TRUE, closed_by=$2, closed_at=$3, updated_at=NOW() WHERE id=$1`, yearID, actor, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrYearNotFound
	}
	return nil
}

// GetYear returns one fiscal year by id.
func (r *Repository) GetYear(ctx context.Context, yearID int64) (Year, error) {
	var y Year
	err := r.pool.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_closed, closed_by, closed_at, created_at, updated_at
FROM fiscal_years WHERE id=$1`, yearID).
		Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsClosed, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Year{}, ErrYearNotFound
		}
		return Year{}, err
	}
	return y, nil
}

// FindPeriodByDate returns the period whose range contains the supplied date.
func (r *Repository) FindPeriodByDate(ctx context.Context, date time.Time) (Period, error) {
	var p Period
	err := r.pool.QueryRow(ctx, `SELECT id, year_id, name, period_type, period_number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE $1 BETWEEN start_date AND end_date ORDER BY period_type='MONTH' DESC, start_date LIMIT 1`, date).
		Scan(&p.ID, &p.YearID, &p.Name, &p.Type, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

// ListYears returns all fiscal years ordered by start date.
func (r *Repository) ListYears(ctx context.Context) ([]Year, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, start_date, end_date, is_closed, closed_by, closed_at, created_at, updated_at
FROM fiscal_years ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []Year
	for rows.Next() {
		var y Year
		if err := rows.Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.IsClosed, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt, &y.UpdatedAt); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// ListPeriods returns the periods of one fiscal year ordered by number.
func (r *Repository) ListPeriods(ctx context.Context, yearID int64) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, year_id, name, period_type, period_number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE year_id=$1 ORDER BY period_type, period_number`, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.YearID, &p.Name, &p.Type, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
