package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency enumerates supported recurrence frequencies.
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// Pattern is a template plus a schedule used to materialise new draft
// entries. The template entry is never posted or mutated.
type Pattern struct {
	ID              int64
	Name            string
	TemplateEntryID int64
	Frequency       Frequency
	Interval        int
	DayOfMonth      *int
	Weekday         *time.Weekday
	StartDate       time.Time
	EndDate         *time.Time
	LastGenerated   *time.Time
	NextGeneration  *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePatternInput groups fields for registering a pattern.
type CreatePatternInput struct {
	Name            string
	TemplateEntryID int64
	Frequency       Frequency
	Interval        int
	DayOfMonth      *int
	Weekday         *time.Weekday
	StartDate       time.Time
	EndDate         *time.Time
}

// Validate ensures the pattern input is coherent.
func (in CreatePatternInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: pattern name required", ErrInvalidInput)
	}
	if in.TemplateEntryID == 0 {
		return fmt.Errorf("%w: template entry required", ErrInvalidInput)
	}
	switch in.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
	default:
		return ErrUnsupportedFrequency
	}
	if in.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date required", ErrInvalidInput)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	if in.DayOfMonth != nil && (*in.DayOfMonth < 1 || *in.DayOfMonth > 31) {
		return fmt.Errorf("%w: day of month out of range", ErrInvalidInput)
	}
	return nil
}

var (
	// ErrInvalidInput indicates a malformed pattern payload.
	ErrInvalidInput = errors.New("recurrence: invalid input")
	// ErrPatternNotFound indicates a missing pattern.
	ErrPatternNotFound = errors.New("recurrence: pattern not found")
	// ErrUnsupportedFrequency indicates date computation is not supported.
	ErrUnsupportedFrequency = errors.New("recurrence: unsupported frequency")
)

// Failure describes one pattern that failed generation in a batch.
type Failure struct {
	PatternID int64
	Name      string
	Err       string
}

// BatchResult summarises a generation batch. Per-pattern failures are
// collected; they never abort the batch.
type BatchResult struct {
	Generated int
	Failures  []Failure
}
