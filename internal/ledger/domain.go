package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates chart-of-accounts categories. The category
// determines the account's natural balance side.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// DebitNormal reports whether the account's normal balance is debit-positive.
// Asset and Expense accounts are debit-normal; the rest are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Valid reports whether the account type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node.
type Account struct {
	ID                 int64
	Code               string
	Name               string
	Type               AccountType
	OpeningBalance     float64
	OpeningBalanceDate *time.Time
	TaxAdjustment      bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Entry is a dated set of balanced debit/credit lines. It is created
// as a draft, may be amended while draft, and becomes immutable once
// posted; only a reversal can neutralise a posted entry.
type Entry struct {
	ID                 int64
	Number             string
	JournalType        string
	Date               time.Time
	PeriodID           int64
	Description        string
	Reference          string
	SourceType         string
	SourceID           uuid.UUID
	RecurringPatternID *int64
	IsPosted           bool
	PostedAt           *time.Time
	IsReversed         bool
	ReversalEntryID    *int64
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []EntryLine
}

// EntryLine stores a debit or credit amount against one account.
// Debit and credit are mutually exclusive per line.
type EntryLine struct {
	ID           int64
	EntryID      int64
	AccountID    int64
	Description  string
	Debit        float64
	Credit       float64
	Currency     string
	ExchangeRate float64
	TaxCode      string
	TaxAmount    float64
	Dimension1ID *int64
	Dimension2ID *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LineInput describes one line of a create/update entry request.
type LineInput struct {
	AccountID    int64    `json:"account_id" validate:"required"`
	Description  string   `json:"description"`
	Debit        float64  `json:"debit_amount" validate:"gte=0"`
	Credit       float64  `json:"credit_amount" validate:"gte=0"`
	Currency     string   `json:"currency"`
	ExchangeRate float64  `json:"exchange_rate"`
	TaxCode      string   `json:"tax_code"`
	TaxAmount    float64  `json:"tax_amount"`
	Dimension1ID *int64   `json:"dimension1_id"`
	Dimension2ID *int64   `json:"dimension2_id"`
}

// EntryInput groups fields required to create or amend an entry.
type EntryInput struct {
	JournalType        string      `json:"journal_type" validate:"required"`
	Date               time.Time   `json:"entry_date" validate:"required"`
	Description        string      `json:"description"`
	Reference          string      `json:"reference"`
	SourceType         string      `json:"source_type"`
	SourceID           uuid.UUID   `json:"source_id"`
	RecurringPatternID *int64      `json:"recurring_pattern_id"`
	CreatedBy          string      `json:"requester_identity"`
	Lines              []LineInput `json:"lines"`
}

// ValidationError aggregates the human-readable business-rule
// violations of a request; callers display the list verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "ledger: " + strings.Join(e.Messages, "; ")
}

// Validate checks the entry input, collecting every violation. The
// entry-balance invariant (total debits = total credits) is enforced
// here, before commit, on every creation path.
func (in EntryInput) Validate() error {
	var msgs []string
	if strings.TrimSpace(in.JournalType) == "" {
		msgs = append(msgs, "journal type is required")
	}
	if in.Date.IsZero() {
		msgs = append(msgs, "entry date is required")
	}
	if len(in.Lines) < 2 {
		msgs = append(msgs, "entry requires at least two lines")
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		n := idx + 1
		if line.AccountID == 0 {
			msgs = append(msgs, fmt.Sprintf("line %d: account is required", n))
		}
		if line.Debit < 0 || line.Credit < 0 {
			msgs = append(msgs, fmt.Sprintf("line %d: amounts cannot be negative", n))
		}
		if line.Debit > 0 && line.Credit > 0 {
			msgs = append(msgs, fmt.Sprintf("line %d: cannot carry both debit and credit", n))
		}
		debit += line.Debit
		credit += line.Credit
	}
	if len(in.Lines) >= 2 && fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
		msgs = append(msgs, fmt.Sprintf("entry does not balance: debits %.2f, credits %.2f", debit, credit))
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

var (
	// ErrEntryNotFound indicates a missing ledger entry.
	ErrEntryNotFound = errors.New("ledger: entry not found")
	// ErrEntryPosted indicates a posted entry cannot be amended.
	ErrEntryPosted = errors.New("ledger: cannot update posted entry")
	// ErrAlreadyPosted indicates the entry was posted before.
	ErrAlreadyPosted = errors.New("ledger: entry already posted")
	// ErrNotPosted indicates the operation requires a posted entry.
	ErrNotPosted = errors.New("ledger: entry is not posted")
	// ErrAlreadyReversed indicates a second reversal attempt.
	ErrAlreadyReversed = errors.New("ledger: entry already reversed")
	// ErrNoOpenPeriod indicates no open period covers the date.
	ErrNoOpenPeriod = errors.New("ledger: no period covers the entry date")
	// ErrPeriodNotOpen indicates the covering period is not open.
	ErrPeriodNotOpen = errors.New("ledger: fiscal period is not open")
	// ErrAccountNotFound indicates an unknown account reference.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountInactive indicates a reference to a deactivated account.
	ErrAccountInactive = errors.New("ledger: account is inactive")
)

// EntrySummary is the lightweight listing shape for presentation layers.
type EntrySummary struct {
	ID          int64
	Number      string
	JournalType string
	Date        time.Time
	Description string
	TotalDebit  float64
	IsPosted    bool
	IsReversed  bool
}

// ListFilter narrows entry listings.
type ListFilter struct {
	From        *time.Time
	To          *time.Time
	Posted      *bool
	JournalType string
	Search      string
	Limit       int
	Offset      int
}
