package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/platform/db"
)

// Repository persists ledger entries, lines, and accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional ledger operations.
type TxRepository interface {
	FindPeriodByDateForUpdate(ctx context.Context, date time.Time) (fiscal.Period, error)
	AccountsByID(ctx context.Context, ids []int64) ([]Account, error)
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []EntryLine) ([]EntryLine, error)
	GetEntryForUpdate(ctx context.Context, entryID int64) (Entry, error)
	GetLines(ctx context.Context, entryID int64) ([]EntryLine, error)
	UpdateEntryHeader(ctx context.Context, entry Entry) error
	DeleteLines(ctx context.Context, entryID int64) error
	MarkPosted(ctx context.Context, entryID int64, at time.Time) error
	MarkReversed(ctx context.Context, entryID, reversalID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Join wraps a caller-owned transaction so a ledger mutation can be
// composed atomically with the caller's own writes.
func (r *Repository) Join(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) FindPeriodByDateForUpdate(ctx context.Context, date time.Time) (fiscal.Period, error) {
	var p fiscal.Period
	err := r.tx.QueryRow(ctx, `SELECT id, year_id, name, period_type, period_number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE $1 BETWEEN start_date AND end_date ORDER BY period_type='MONTH' DESC, start_date LIMIT 1 FOR UPDATE`, date).
		Scan(&p.ID, &p.YearID, &p.Name, &p.Type, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fiscal.Period{}, ErrNoOpenPeriod
		}
		return fiscal.Period{}, err
	}
	return p, nil
}

func (r *txRepository) AccountsByID(ctx context.Context, ids []int64) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, account_type, opening_balance, opening_balance_date, tax_adjustment, is_active, created_at, updated_at
FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO ledger_entries
(number, journal_type, entry_date, period_id, description, reference, source_type, source_id, recurring_pattern_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at, updated_at`,
		entry.Number, entry.JournalType, entry.Date, entry.PeriodID, entry.Description, entry.Reference,
		nullString(entry.SourceType), nullUUID(entry.SourceID), entry.RecurringPatternID, entry.CreatedBy)
	inserted := entry
	if err := row.Scan(&inserted.ID, &inserted.CreatedAt, &inserted.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []EntryLine) ([]EntryLine, error) {
	out := make([]EntryLine, 0, len(lines))
	for _, line := range lines {
		row := r.tx.QueryRow(ctx, `INSERT INTO ledger_entry_lines
(entry_id, account_id, description, debit, credit, currency, exchange_rate, tax_code, tax_amount, dimension1_id, dimension2_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
			entryID, line.AccountID, line.Description, toNumeric(line.Debit), toNumeric(line.Credit),
			nullString(line.Currency), line.ExchangeRate, nullString(line.TaxCode), toNumeric(line.TaxAmount),
			line.Dimension1ID, line.Dimension2ID)
		inserted := line
		inserted.EntryID = entryID
		if err := row.Scan(&inserted.ID, &inserted.CreatedAt, &inserted.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, entryID int64) (Entry, error) {
	var e Entry
	var sourceType, sourceID *string
	err := r.tx.QueryRow(ctx, `SELECT id, number, journal_type, entry_date, period_id, description, reference,
source_type, source_id::text, recurring_pattern_id, is_posted, posted_at, is_reversed, reversal_entry_id, created_by, created_at, updated_at
FROM ledger_entries WHERE id=$1 FOR UPDATE`, entryID).
		Scan(&e.ID, &e.Number, &e.JournalType, &e.Date, &e.PeriodID, &e.Description, &e.Reference,
			&sourceType, &sourceID, &e.RecurringPatternID, &e.IsPosted, &e.PostedAt, &e.IsReversed,
			&e.ReversalEntryID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	applySource(&e, sourceType, sourceID)
	return e, nil
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]EntryLine, error) {
	rows, err := r.tx.Query(ctx, lineSelect+` WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

func (r *txRepository) UpdateEntryHeader(ctx context.Context, entry Entry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE ledger_entries SET journal_type=$2, entry_date=$3, period_id=$4, description=$5, reference=$6, updated_at=NOW()
WHERE id=$1`, entry.ID, entry.JournalType, entry.Date, entry.PeriodID, entry.Description, entry.Reference)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM ledger_entry_lines WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE ledger_entries SET is_posted=TRUE, posted_at=$2, updated_at=NOW() WHERE id=$1 AND is_posted=FALSE`, entryID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyPosted
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, entryID, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE ledger_entries SET is_reversed=TRUE, reversal_entry_id=$2, updated_at=NOW() WHERE id=$1 AND is_reversed=FALSE`, entryID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyReversed
	}
	return nil
}

const lineSelect = `SELECT id, entry_id, account_id, description, debit, credit, COALESCE(currency,''), exchange_rate, COALESCE(tax_code,''), tax_amount, dimension1_id, dimension2_id, created_at, updated_at
FROM ledger_entry_lines`

const entrySelect = `SELECT id, number, journal_type, entry_date, period_id, description, reference,
source_type, source_id::text, recurring_pattern_id, is_posted, posted_at, is_reversed, reversal_entry_id, created_by, created_at, updated_at
FROM ledger_entries`

// GetEntry loads one entry with its lines.
func (r *Repository) GetEntry(ctx context.Context, entryID int64) (Entry, error) {
	var e Entry
	var sourceType, sourceID *string
	err := r.pool.QueryRow(ctx, entrySelect+` WHERE id=$1`, entryID).
		Scan(&e.ID, &e.Number, &e.JournalType, &e.Date, &e.PeriodID, &e.Description, &e.Reference,
			&sourceType, &sourceID, &e.RecurringPatternID, &e.IsPosted, &e.PostedAt, &e.IsReversed,
			&e.ReversalEntryID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	applySource(&e, sourceType, sourceID)
	rows, err := r.pool.Query(ctx, lineSelect+` WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return Entry{}, err
	}
	defer rows.Close()
	lines, err := scanLines(rows)
	if err != nil {
		return Entry{}, err
	}
	e.Lines = lines
	return e, nil
}

// ListEntries returns lightweight entry summaries matching the filter.
func (r *Repository) ListEntries(ctx context.Context, filter ListFilter) ([]EntrySummary, error) {
	var b strings.Builder
	b.WriteString(`SELECT e.id, e.number, e.journal_type, e.entry_date, e.description,
COALESCE((SELECT SUM(l.debit) FROM ledger_entry_lines l WHERE l.entry_id=e.id), 0),
e.is_posted, e.is_reversed FROM ledger_entries e WHERE 1=1`)
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.From != nil {
		b.WriteString(` AND e.entry_date >= ` + arg(*filter.From))
	}
	if filter.To != nil {
		b.WriteString(` AND e.entry_date <= ` + arg(*filter.To))
	}
	if filter.Posted != nil {
		b.WriteString(` AND e.is_posted = ` + arg(*filter.Posted))
	}
	if filter.JournalType != "" {
		b.WriteString(` AND e.journal_type = ` + arg(filter.JournalType))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		b.WriteString(` AND (e.number ILIKE ` + p + ` OR e.description ILIKE ` + p + `)`)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(` ORDER BY e.entry_date DESC, e.id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset))

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EntrySummary
	for rows.Next() {
		var s EntrySummary
		if err := rows.Scan(&s.ID, &s.Number, &s.JournalType, &s.Date, &s.Description, &s.TotalDebit, &s.IsPosted, &s.IsReversed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAccounts returns the chart of accounts ordered by code.
func (r *Repository) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	query := `SELECT id, code, name, account_type, opening_balance, opening_balance_date, tax_adjustment, is_active, created_at, updated_at FROM accounts`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.OpeningBalance, &a.OpeningBalanceDate, &a.TaxAdjustment, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanLines(rows pgx.Rows) ([]EntryLine, error) {
	var lines []EntryLine
	for rows.Next() {
		var l EntryLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Description, &l.Debit, &l.Credit, &l.Currency, &l.ExchangeRate, &l.TaxCode, &l.TaxAmount, &l.Dimension1ID, &l.Dimension2ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func applySource(e *Entry, sourceType, sourceID *string) {
	if sourceType != nil {
		e.SourceType = *sourceType
	}
	if sourceID != nil {
		if parsed, err := uuid.Parse(*sourceID); err == nil {
			e.SourceID = parsed
		}
	}
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullUUID(v uuid.UUID) any {
	if v == uuid.Nil {
		return nil
	}
	return v
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
