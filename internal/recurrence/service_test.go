package recurrence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granite-erp/granite/internal/ledger"
)

type mockPatternRepo struct {
	patterns []Pattern
	updates  []scheduleUpdate

	deactivated []int64
}

type scheduleUpdate struct {
	patternID int64
	last      time.Time
	next      *time.Time
	active    bool
}

func (m *mockPatternRepo) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (m *mockPatternRepo) ListDue(ctx context.Context, asOf time.Time) ([]Pattern, error) {
	var due []Pattern
	for _, p := range m.patterns {
		if p.IsActive && p.NextGeneration != nil && !p.NextGeneration.After(asOf) {
			due = append(due, p)
		}
	}
	return due, nil
}

func (m *mockPatternRepo) ListPatterns(ctx context.Context) ([]Pattern, error) {
	return m.patterns, nil
}

func (m *mockPatternRepo) InsertPattern(ctx context.Context, in CreatePatternInput) (Pattern, error) {
	start := in.StartDate
	p := Pattern{
		ID:              int64(len(m.patterns) + 1),
		Name:            in.Name,
		TemplateEntryID: in.TemplateEntryID,
		Frequency:       in.Frequency,
		Interval:        in.Interval,
		DayOfMonth:      in.DayOfMonth,
		Weekday:         in.Weekday,
		StartDate:       start,
		EndDate:         in.EndDate,
		NextGeneration:  &start,
		IsActive:        true,
	}
	m.patterns = append(m.patterns, p)
	return p, nil
}

func (m *mockPatternRepo) UpdateAfterGeneration(ctx context.Context, tx pgx.Tx, patternID int64, last time.Time, next *time.Time, active bool) error {
	m.updates = append(m.updates, scheduleUpdate{patternID: patternID, last: last, next: next, active: active})
	return nil
}

func (m *mockPatternRepo) Deactivate(ctx context.Context, patternID int64) error {
	m.deactivated = append(m.deactivated, patternID)
	return nil
}

type mockEntries struct {
	templates map[int64]ledger.Entry
	created   []ledger.EntryInput
	createErr error
}

func (m *mockEntries) GetEntry(ctx context.Context, entryID int64) (ledger.Entry, error) {
	e, ok := m.templates[entryID]
	if !ok {
		return ledger.Entry{}, ledger.ErrEntryNotFound
	}
	return e, nil
}

func (m *mockEntries) CreateEntryIn(ctx context.Context, tx pgx.Tx, in ledger.EntryInput) (ledger.Entry, error) {
	if m.createErr != nil {
		return ledger.Entry{}, m.createErr
	}
	m.created = append(m.created, in)
	return ledger.Entry{ID: int64(len(m.created)), Lines: nil}, nil
}

func templateEntry() ledger.Entry {
	return ledger.Entry{
		ID:          100,
		Number:      "JE-000100",
		JournalType: "GENERAL",
		Description: "Monthly rent",
		Lines: []ledger.EntryLine{
			{AccountID: 3, Debit: 1200, Currency: "SGD", ExchangeRate: 1},
			{AccountID: 1, Credit: 1200, Currency: "SGD", ExchangeRate: 1},
		},
	}
}

func activePattern(id int64, next time.Time) Pattern {
	return Pattern{
		ID:              id,
		Name:            "Office rent",
		TemplateEntryID: 100,
		Frequency:       FrequencyMonthly,
		Interval:        1,
		StartDate:       date(2024, time.January, 15),
		NextGeneration:  &next,
		IsActive:        true,
	}
}

func TestCreatePatternRequiresTemplate(t *testing.T) {
	repo := &mockPatternRepo{}
	entries := &mockEntries{templates: map[int64]ledger.Entry{}}
	service := NewService(repo, entries)

	_, err := service.CreatePattern(context.Background(), CreatePatternInput{
		Name:            "Office rent",
		TemplateEntryID: 100,
		Frequency:       FrequencyMonthly,
		Interval:        1,
		StartDate:       date(2024, time.January, 15),
	})
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestCreatePatternSchedulesFirstRun(t *testing.T) {
	repo := &mockPatternRepo{}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	pattern, err := service.CreatePattern(context.Background(), CreatePatternInput{
		Name:            "Office rent",
		TemplateEntryID: 100,
		Frequency:       FrequencyMonthly,
		Interval:        1,
		StartDate:       date(2024, time.January, 15),
	})
	require.NoError(t, err)
	require.NotNil(t, pattern.NextGeneration)
	assert.True(t, pattern.NextGeneration.Equal(pattern.StartDate))
}

func TestGenerateDueMaterialisesDraft(t *testing.T) {
	next := date(2024, time.March, 15)
	repo := &mockPatternRepo{patterns: []Pattern{activePattern(1, next)}}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Empty(t, result.Failures)

	require.Len(t, entries.created, 1)
	created := entries.created[0]
	assert.True(t, created.Date.Equal(next))
	assert.Equal(t, "RECURRING", created.SourceType)
	assert.Equal(t, "Monthly rent (Recurring: Office rent)", created.Description)
	assert.Equal(t, "recurrence-engine", created.CreatedBy)
	require.NotNil(t, created.RecurringPatternID)
	assert.Equal(t, int64(1), *created.RecurringPatternID)
	require.Len(t, created.Lines, 2)
	assert.Equal(t, float64(1200), created.Lines[0].Debit)

	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	assert.True(t, update.last.Equal(next))
	require.NotNil(t, update.next)
	assert.True(t, update.next.Equal(date(2024, time.April, 15)))
	assert.True(t, update.active)
}

func TestGenerateDueSkipsFuturePatterns(t *testing.T) {
	next := date(2024, time.April, 1)
	repo := &mockPatternRepo{patterns: []Pattern{activePattern(1, next)}}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Empty(t, entries.created)
}

func TestGenerateDueCollectsFailuresAndContinues(t *testing.T) {
	broken := activePattern(1, date(2024, time.March, 1))
	broken.TemplateEntryID = 999
	healthy := activePattern(2, date(2024, time.March, 1))

	repo := &mockPatternRepo{patterns: []Pattern{broken, healthy}}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(1), result.Failures[0].PatternID)
	assert.Contains(t, result.Failures[0].Err, "template")
}

func TestGenerateDueDeactivatesPastEndDate(t *testing.T) {
	end := date(2024, time.March, 31)
	pattern := activePattern(1, date(2024, time.March, 15))
	pattern.EndDate = &end

	repo := &mockPatternRepo{patterns: []Pattern{pattern}}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)

	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	assert.Nil(t, update.next)
	assert.False(t, update.active, "pattern past its end date must deactivate")
}

func TestGenerateDueDeactivatesUnsupportedFrequency(t *testing.T) {
	pattern := activePattern(1, date(2024, time.March, 15))
	pattern.Frequency = Frequency("HOURLY")

	repo := &mockPatternRepo{patterns: []Pattern{pattern}}
	entries := &mockEntries{templates: map[int64]ledger.Entry{100: templateEntry()}}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	require.Len(t, repo.updates, 1)
	assert.False(t, repo.updates[0].active)
}

func TestGenerateDueFailedCreateDoesNotAdvanceSchedule(t *testing.T) {
	repo := &mockPatternRepo{patterns: []Pattern{activePattern(1, date(2024, time.March, 15))}}
	entries := &mockEntries{
		templates: map[int64]ledger.Entry{100: templateEntry()},
		createErr: errors.New("ledger: fiscal period is not open"),
	}
	service := NewService(repo, entries)

	result, err := service.GenerateDue(context.Background(), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	require.Len(t, result.Failures, 1)
	assert.Empty(t, repo.updates, "schedule must not advance when the entry fails")
}
