package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Join(tx pgx.Tx) TxRepository
	GetEntry(ctx context.Context, entryID int64) (Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]EntrySummary, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error)
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the ledger entry lifecycle: draft creation,
// amendment, posting, and reversal. Every mutation resolves its
// effective date against an Open fiscal period inside the same
// transaction that performs the write.
type Service struct {
	repo    RepositoryPort
	numbers NumberSource
	audit   AuditPort
	now     func() time.Time
}

// NewService constructs the ledger entry service.
func NewService(repo RepositoryPort, numbers NumberSource, audit AuditPort) *Service {
	return &Service{repo: repo, numbers: numbers, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEntry validates and persists a new draft entry with its lines.
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = s.createEntryTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, in.CreatedBy, "entry.create", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// CreateEntryIn creates a draft entry inside a caller-owned
// transaction, so the ledger write commits or rolls back together
// with the caller's own writes.
func (s *Service) CreateEntryIn(ctx context.Context, tx pgx.Tx, in EntryInput) (Entry, error) {
	return s.createEntryTx(ctx, s.repo.Join(tx), in)
}

func (s *Service) createEntryTx(ctx context.Context, tx TxRepository, in EntryInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	period, err := tx.FindPeriodByDateForUpdate(ctx, in.Date)
	if err != nil {
		return Entry{}, err
	}
	if period.Status != fiscal.PeriodStatusOpen {
		return Entry{}, ErrPeriodNotOpen
	}
	if err := checkAccounts(ctx, tx, in.Lines); err != nil {
		return Entry{}, err
	}
	number, err := s.numbers.Next(ctx, SequenceName)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: allocate entry number: %w", err)
	}
	inserted, err := tx.InsertEntry(ctx, Entry{
		Number:             number,
		JournalType:        in.JournalType,
		Date:               in.Date,
		PeriodID:           period.ID,
		Description:        in.Description,
		Reference:          in.Reference,
		SourceType:         in.SourceType,
		SourceID:           in.SourceID,
		RecurringPatternID: in.RecurringPatternID,
		CreatedBy:          in.CreatedBy,
	})
	if err != nil {
		return Entry{}, err
	}
	lines, err := tx.InsertLines(ctx, inserted.ID, toLines(in.Lines))
	if err != nil {
		return Entry{}, err
	}
	inserted.Lines = lines
	return inserted, nil
}

// UpdateEntry replaces a draft entry's header and lines wholesale.
// Posted entries are immutable.
func (s *Service) UpdateEntry(ctx context.Context, entryID int64, in EntryInput) (Entry, error) {
	if entryID == 0 {
		return Entry{}, ErrEntryNotFound
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.IsPosted {
			return ErrEntryPosted
		}
		if err := in.Validate(); err != nil {
			return err
		}
		period, err := tx.FindPeriodByDateForUpdate(ctx, in.Date)
		if err != nil {
			return err
		}
		if period.Status != fiscal.PeriodStatusOpen {
			return ErrPeriodNotOpen
		}
		if err := checkAccounts(ctx, tx, in.Lines); err != nil {
			return err
		}
		current.JournalType = in.JournalType
		current.Date = in.Date
		current.PeriodID = period.ID
		current.Description = in.Description
		current.Reference = in.Reference
		if err := tx.UpdateEntryHeader(ctx, current); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, entryID); err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, entryID, toLines(in.Lines))
		if err != nil {
			return err
		}
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, in.CreatedBy, "entry.update", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// PostEntry finalises a draft entry into the permanent ledger.
// Posting is irreversible; there is no unpost.
func (s *Service) PostEntry(ctx context.Context, entryID int64, actor string) (Entry, error) {
	if entryID == 0 {
		return Entry{}, ErrEntryNotFound
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.IsPosted {
			return ErrAlreadyPosted
		}
		period, err := tx.FindPeriodByDateForUpdate(ctx, current.Date)
		if err != nil {
			return err
		}
		if period.Status != fiscal.PeriodStatusOpen {
			return ErrPeriodNotOpen
		}
		at := s.now()
		if err := tx.MarkPosted(ctx, entryID, at); err != nil {
			return err
		}
		current.IsPosted = true
		current.PostedAt = &at
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, "entry.post", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// ReverseInput wraps parameters for reversing a posted entry.
type ReverseInput struct {
	EntryID     int64
	Date        time.Time
	Description string
	ActorID     string
}

// ReverseEntry builds a new draft entry mirroring the original (debit
// and credit swapped, tax amounts negated), creates it through the
// standard validation path, and flags the original with a
// back-reference. Both effects land in one transaction. The reversing
// entry stays a draft so it can be reviewed before posting.
func (s *Service) ReverseEntry(ctx context.Context, in ReverseInput) (Entry, error) {
	if in.EntryID == 0 {
		return Entry{}, ErrEntryNotFound
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	var reversal Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if !original.IsPosted {
			return ErrNotPosted
		}
		if original.IsReversed {
			return ErrAlreadyReversed
		}
		lines, err := tx.GetLines(ctx, original.ID)
		if err != nil {
			return err
		}
		reversal, err = s.createEntryTx(ctx, tx, EntryInput{
			JournalType: original.JournalType,
			Date:        in.Date,
			Description: reversalDescription(in.Description, original.Number),
			Reference:   original.Number,
			SourceType:  "REVERSAL",
			SourceID:    uuid.New(),
			CreatedBy:   in.ActorID,
			Lines:       reverseLines(lines),
		})
		if err != nil {
			return err
		}
		return tx.MarkReversed(ctx, original.ID, reversal.ID)
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, in.ActorID, "entry.reverse", in.EntryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
	})
	return reversal, nil
}

// GetEntry loads one entry with its lines.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (Entry, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// ListEntries returns lightweight summaries for presentation layers.
func (s *Service) ListEntries(ctx context.Context, filter ListFilter) ([]EntrySummary, error) {
	return s.repo.ListEntries(ctx, filter)
}

// ListAccounts returns the chart of accounts.
func (s *Service) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	return s.repo.ListAccounts(ctx, activeOnly)
}

func checkAccounts(ctx context.Context, tx TxRepository, lines []LineInput) error {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	accounts, err := tx.AccountsByID(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	for _, id := range ids {
		acc, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: account %d", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s", ErrAccountInactive, acc.Code)
		}
	}
	return nil
}

func toLines(inputs []LineInput) []EntryLine {
	out := make([]EntryLine, 0, len(inputs))
	for _, in := range inputs {
		rate := in.ExchangeRate
		if rate == 0 {
			rate = 1
		}
		out = append(out, EntryLine{
			AccountID:    in.AccountID,
			Description:  in.Description,
			Debit:        in.Debit,
			Credit:       in.Credit,
			Currency:     in.Currency,
			ExchangeRate: rate,
			TaxCode:      in.TaxCode,
			TaxAmount:    in.TaxAmount,
			Dimension1ID: in.Dimension1ID,
			Dimension2ID: in.Dimension2ID,
		})
	}
	return out
}

func reverseLines(lines []EntryLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		desc := "Reversal"
		if line.Description != "" {
			desc = "Reversal: " + line.Description
		}
		out = append(out, LineInput{
			AccountID:    line.AccountID,
			Description:  desc,
			Debit:        line.Credit,
			Credit:       line.Debit,
			Currency:     line.Currency,
			ExchangeRate: line.ExchangeRate,
			TaxCode:      line.TaxCode,
			TaxAmount:    -line.TaxAmount,
			Dimension1ID: line.Dimension1ID,
			Dimension2ID: line.Dimension2ID,
		})
	}
	return out
}

func reversalDescription(desc, number string) string {
	if desc != "" {
		return desc
	}
	return fmt.Sprintf("Reversal of %s", number)
}

func (s *Service) record(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "ledger_entry",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
