package fiscal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PeriodType enumerates the supported period granularities.
type PeriodType string

const (
	PeriodTypeMonth   PeriodType = "MONTH"
	PeriodTypeQuarter PeriodType = "QUARTER"
	PeriodTypeYear    PeriodType = "YEAR"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen     PeriodStatus = "OPEN"
	PeriodStatusClosed   PeriodStatus = "CLOSED"
	PeriodStatusArchived PeriodStatus = "ARCHIVED"
)

// GenerateKind selects the automatic period subdivision for a new year.
type GenerateKind string

const (
	GenerateNone    GenerateKind = "NONE"
	GenerateMonth   GenerateKind = "MONTH"
	GenerateQuarter GenerateKind = "QUARTER"
)

// Year represents a fiscal year window.
type Year struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	ClosedBy  *string
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period represents a fiscal period inside a year. Its status gates
// whether dates within its range may receive postings.
type Period struct {
	ID        int64
	YearID    int64
	Name      string
	Type      PeriodType
	Number    int
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether the date falls inside the period range.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// CreateYearInput groups fields required to create a fiscal year.
type CreateYearInput struct {
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	AutoGenerate GenerateKind
	ActorID      string
}

// Validate ensures the create year input is coherent.
func (in CreateYearInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: year name required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end date required", ErrInvalidInput)
	}
	if !in.StartDate.Before(in.EndDate) {
		return ErrInvalidRange
	}
	switch in.AutoGenerate {
	case "", GenerateNone, GenerateMonth, GenerateQuarter:
	default:
		return fmt.Errorf("%w: unsupported auto-generate kind %q", ErrInvalidInput, in.AutoGenerate)
	}
	return nil
}

var (
	// ErrInvalidInput indicates a malformed request payload.
	ErrInvalidInput = errors.New("fiscal: invalid input")
	// ErrInvalidRange indicates start is not before end.
	ErrInvalidRange = errors.New("fiscal: start date must be before end date")
	// ErrYearExists indicates a duplicate fiscal year name.
	ErrYearExists = errors.New("fiscal: year name already exists")
	// ErrYearOverlap indicates the range overlaps an existing year.
	ErrYearOverlap = errors.New("fiscal: year range overlaps existing year")
	// ErrYearNotFound indicates a missing fiscal year.
	ErrYearNotFound = errors.New("fiscal: year not found")
	// ErrYearClosed indicates the year is already closed.
	ErrYearClosed = errors.New("fiscal: year already closed")
	// ErrPeriodNotFound indicates a missing fiscal period.
	ErrPeriodNotFound = errors.New("fiscal: period not found")
	// ErrPeriodNotOpen indicates the period cannot be closed again.
	ErrPeriodNotOpen = errors.New("fiscal: period is not open")
	// ErrPeriodArchived indicates an archived period cannot transition.
	ErrPeriodArchived = errors.New("fiscal: period is archived")
	// ErrPeriodOpen indicates the period cannot be reopened again.
	ErrPeriodOpen = errors.New("fiscal: period is already open")
	// ErrPeriodsExist indicates generation was requested for a populated year.
	ErrPeriodsExist = errors.New("fiscal: periods of that type already exist")
)

// OpenPeriodsError reports which periods block a year close.
type OpenPeriodsError struct {
	Names []string
}

func (e *OpenPeriodsError) Error() string {
	return fmt.Sprintf("fiscal: cannot close year, periods still open: %s", strings.Join(e.Names, ", "))
}
