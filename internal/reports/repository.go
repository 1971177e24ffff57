package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granite-erp/granite/internal/ledger"
)

// Repository aggregates posted entries for reporting. It is strictly
// read-only; every query recomputes from the posted-entry log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BalancesAsOf returns, per active account, the opening balance and
// the summed posted debits/credits dated on or before asOf, floored
// at the account's opening balance date when set.
func (r *Repository) BalancesAsOf(ctx context.Context, asOf time.Time) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.account_type, a.tax_adjustment, a.opening_balance,
COALESCE(s.debit, 0), COALESCE(s.credit, 0)
FROM accounts a
LEFT JOIN LATERAL (
    SELECT SUM(l.debit) AS debit, SUM(l.credit) AS credit
    FROM ledger_entry_lines l
    JOIN ledger_entries e ON e.id = l.entry_id
    WHERE l.account_id = a.id AND e.is_posted AND e.entry_date <= $1
      AND (a.opening_balance_date IS NULL OR e.entry_date >= a.opening_balance_date)
) s ON TRUE
WHERE a.is_active
ORDER BY a.code`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBalances(rows)
}

// ActivityBetween returns, per active account, the summed posted
// debits/credits dated within [start, end]. Opening balances are not
// included; the result feeds flow statements.
func (r *Repository) ActivityBetween(ctx context.Context, start, end time.Time) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.account_type, a.tax_adjustment, 0::numeric,
COALESCE(s.debit, 0), COALESCE(s.credit, 0)
FROM accounts a
LEFT JOIN LATERAL (
    SELECT SUM(l.debit) AS debit, SUM(l.credit) AS credit
    FROM ledger_entry_lines l
    JOIN ledger_entries e ON e.id = l.entry_id
    WHERE l.account_id = a.id AND e.is_posted AND e.entry_date BETWEEN $1 AND $2
) s ON TRUE
WHERE a.is_active
ORDER BY a.code`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBalances(rows)
}

// AccountLines returns the posted lines for one account within
// [start, end] in date order, optionally filtered by dimension tags.
func (r *Repository) AccountLines(ctx context.Context, accountID int64, start, end time.Time, dim1, dim2 *int64) ([]GeneralLedgerLine, error) {
	query := `SELECT e.entry_date, e.number, l.description, l.debit, l.credit
FROM ledger_entry_lines l
JOIN ledger_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.is_posted AND e.entry_date BETWEEN $2 AND $3`
	args := []any{accountID, start, end}
	if dim1 != nil {
		args = append(args, *dim1)
		query += ` AND l.dimension1_id = $4`
	}
	if dim2 != nil {
		args = append(args, *dim2)
		if dim1 != nil {
			query += ` AND l.dimension2_id = $5`
		} else {
			query += ` AND l.dimension2_id = $4`
		}
	}
	query += ` ORDER BY e.entry_date, e.id, l.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []GeneralLedgerLine
	for rows.Next() {
		var l GeneralLedgerLine
		if err := rows.Scan(&l.Date, &l.EntryNumber, &l.Description, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AccountByID loads one account.
func (r *Repository) AccountByID(ctx context.Context, accountID int64) (ledger.Account, error) {
	var a ledger.Account
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, account_type, opening_balance, opening_balance_date, tax_adjustment, is_active, created_at, updated_at
FROM accounts WHERE id=$1`, accountID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.OpeningBalance, &a.OpeningBalanceDate, &a.TaxAdjustment, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrAccountNotFound
		}
		return ledger.Account{}, err
	}
	return a, nil
}

// TaxLines returns every posted line carrying a tax code within
// [start, end] with its account category.
func (r *Repository) TaxLines(ctx context.Context, start, end time.Time) ([]TaxLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.account_type, l.tax_code, l.debit, l.credit, l.tax_amount
FROM ledger_entry_lines l
JOIN ledger_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.is_posted AND e.entry_date BETWEEN $1 AND $2 AND l.tax_code IS NOT NULL
ORDER BY e.entry_date, l.id`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []TaxLine
	for rows.Next() {
		var l TaxLine
		if err := rows.Scan(&l.AccountType, &l.TaxCode, &l.Debit, &l.Credit, &l.TaxAmount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanBalances(rows pgx.Rows) ([]AccountBalance, error) {
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.TaxAdjustment, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
