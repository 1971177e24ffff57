package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/granite-erp/granite/internal/ledger"
)

// RepositoryPort abstracts pattern persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	ListDue(ctx context.Context, asOf time.Time) ([]Pattern, error)
	ListPatterns(ctx context.Context) ([]Pattern, error)
	InsertPattern(ctx context.Context, in CreatePatternInput) (Pattern, error)
	UpdateAfterGeneration(ctx context.Context, tx pgx.Tx, patternID int64, last time.Time, next *time.Time, active bool) error
	Deactivate(ctx context.Context, patternID int64) error
}

// EntryPort is the slice of the ledger service the engine needs: read
// the template and materialise a draft inside the engine's transaction.
type EntryPort interface {
	GetEntry(ctx context.Context, entryID int64) (ledger.Entry, error)
	CreateEntryIn(ctx context.Context, tx pgx.Tx, in ledger.EntryInput) (ledger.Entry, error)
}

// Service scans recurring patterns and materialises draft entries
// from their templates.
type Service struct {
	repo    RepositoryPort
	entries EntryPort
	now     func() time.Time
}

// NewService constructs the recurrence engine.
func NewService(repo RepositoryPort, entries EntryPort) *Service {
	return &Service{repo: repo, entries: entries, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePattern validates the template entry and registers the pattern.
func (s *Service) CreatePattern(ctx context.Context, in CreatePatternInput) (Pattern, error) {
	if err := in.Validate(); err != nil {
		return Pattern{}, err
	}
	if _, err := s.entries.GetEntry(ctx, in.TemplateEntryID); err != nil {
		return Pattern{}, fmt.Errorf("recurrence: template entry: %w", err)
	}
	return s.repo.InsertPattern(ctx, in)
}

// ListPatterns returns every registered pattern.
func (s *Service) ListPatterns(ctx context.Context) ([]Pattern, error) {
	return s.repo.ListPatterns(ctx)
}

// DeactivatePattern switches a pattern off.
func (s *Service) DeactivatePattern(ctx context.Context, patternID int64) error {
	return s.repo.Deactivate(ctx, patternID)
}

// GenerateDue materialises a draft entry for every active pattern due
// as of the supplied date. Each pattern's generation and schedule
// update share one transaction; a failure on one pattern is collected
// and the batch moves on.
func (s *Service) GenerateDue(ctx context.Context, asOf time.Time) (BatchResult, error) {
	patterns, err := s.repo.ListDue(ctx, asOf)
	if err != nil {
		return BatchResult{}, err
	}
	var result BatchResult
	for _, pattern := range patterns {
		if err := s.generateOne(ctx, pattern); err != nil {
			result.Failures = append(result.Failures, Failure{
				PatternID: pattern.ID,
				Name:      pattern.Name,
				Err:       err.Error(),
			})
			continue
		}
		result.Generated++
	}
	return result, nil
}

func (s *Service) generateOne(ctx context.Context, pattern Pattern) error {
	if pattern.NextGeneration == nil {
		return fmt.Errorf("recurrence: pattern %d has no scheduled date", pattern.ID)
	}
	generateDate := *pattern.NextGeneration
	template, err := s.entries.GetEntry(ctx, pattern.TemplateEntryID)
	if err != nil {
		return fmt.Errorf("recurrence: load template: %w", err)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		patternID := pattern.ID
		if _, err := s.entries.CreateEntryIn(ctx, tx, ledger.EntryInput{
			JournalType:        template.JournalType,
			Date:               generateDate,
			Description:        annotate(template.Description, pattern.Name),
			Reference:          template.Reference,
			SourceType:         "RECURRING",
			RecurringPatternID: &patternID,
			CreatedBy:          "recurrence-engine",
			Lines:              copyLines(template.Lines),
		}); err != nil {
			return err
		}
		next, active := s.schedule(pattern, generateDate)
		return s.repo.UpdateAfterGeneration(ctx, tx, pattern.ID, generateDate, next, active)
	})
}

// schedule computes the pattern state after a generation: the next
// occurrence, or deactivation when the schedule is exhausted or the
// frequency cannot be computed.
func (s *Service) schedule(pattern Pattern, generated time.Time) (*time.Time, bool) {
	next, err := NextDate(generated, pattern.Frequency, pattern.Interval, pattern.DayOfMonth, pattern.Weekday)
	if err != nil {
		return nil, false
	}
	if pattern.EndDate != nil && next.After(*pattern.EndDate) {
		return nil, false
	}
	return &next, true
}

func copyLines(lines []ledger.EntryLine) []ledger.LineInput {
	out := make([]ledger.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, ledger.LineInput{
			AccountID:    line.AccountID,
			Description:  line.Description,
			Debit:        line.Debit,
			Credit:       line.Credit,
			Currency:     line.Currency,
			ExchangeRate: line.ExchangeRate,
			TaxCode:      line.TaxCode,
			TaxAmount:    line.TaxAmount,
			Dimension1ID: line.Dimension1ID,
			Dimension2ID: line.Dimension2ID,
		})
	}
	return out
}

func annotate(description, patternName string) string {
	if description == "" {
		return fmt.Sprintf("Recurring: %s", patternName)
	}
	return fmt.Sprintf("%s (Recurring: %s)", description, patternName)
}
