package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/granite-erp/granite/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindPeriodByDate(ctx context.Context, date time.Time) (Period, error)
	ListYears(ctx context.Context) ([]Year, error)
	ListPeriods(ctx context.Context, yearID int64) ([]Period, error)
}

// AuditPort records calendar events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the fiscal calendar: years, their periods, and the
// period state machine gating postings.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the fiscal calendar service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateYear persists a new fiscal year and, when requested, its
// generated periods. Year insert and period generation are one
// transaction: a generation failure fails the whole operation.
func (s *Service) CreateYear(ctx context.Context, in CreateYearInput) (Year, []Period, error) {
	if err := in.Validate(); err != nil {
		return Year{}, nil, err
	}
	var year Year
	var periods []Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.YearNameExists(ctx, in.Name)
		if err != nil {
			return err
		}
		if exists {
			return ErrYearExists
		}
		overlap, err := tx.YearRangeOverlaps(ctx, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return ErrYearOverlap
		}
		year, err = tx.InsertYear(ctx, in)
		if err != nil {
			return err
		}
		if in.AutoGenerate == "" || in.AutoGenerate == GenerateNone {
			return nil
		}
		generated := GeneratePeriods(year.StartDate, year.EndDate, in.AutoGenerate)
		periods, err = tx.InsertPeriods(ctx, year.ID, generated)
		return err
	})
	if err != nil {
		return Year{}, nil, err
	}
	s.record(ctx, in.ActorID, "fiscal.year.create", year.ID, map[string]any{
		"name": year.Name, "periods": len(periods),
	})
	return year, periods, nil
}

// GeneratePeriodsForYear subdivides an existing year. Fails when
// periods of the requested type already exist or the year is closed.
func (s *Service) GeneratePeriodsForYear(ctx context.Context, yearID int64, kind GenerateKind, actor string) ([]Period, error) {
	if kind != GenerateMonth && kind != GenerateQuarter {
		return nil, fmt.Errorf("%w: unsupported auto-generate kind %q", ErrInvalidInput, kind)
	}
	var periods []Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year, err := tx.GetYearForUpdate(ctx, yearID)
		if err != nil {
			return err
		}
		if year.IsClosed {
			return ErrYearClosed
		}
		exists, err := tx.PeriodsOfTypeExist(ctx, yearID, PeriodType(kind))
		if err != nil {
			return err
		}
		if exists {
			return ErrPeriodsExist
		}
		generated := GeneratePeriods(year.StartDate, year.EndDate, kind)
		periods, err = tx.InsertPeriods(ctx, yearID, generated)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "fiscal.periods.generate", yearID, map[string]any{"kind": kind, "count": len(periods)})
	return periods, nil
}

// ClosePeriod transitions an Open period to Closed.
func (s *Service) ClosePeriod(ctx context.Context, periodID int64, actor string) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPeriodForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		switch current.Status {
		case PeriodStatusArchived:
			return ErrPeriodArchived
		case PeriodStatusClosed:
			return ErrPeriodNotOpen
		}
		if err := tx.UpdatePeriodStatus(ctx, periodID, PeriodStatusClosed); err != nil {
			return err
		}
		period = current
		period.Status = PeriodStatusClosed
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actor, "fiscal.period.close", period.ID, map[string]any{"name": period.Name})
	return period, nil
}

// ReopenPeriod transitions a Closed period back to Open. Archived
// periods and periods of a closed year stay shut.
func (s *Service) ReopenPeriod(ctx context.Context, periodID int64, actor string) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPeriodForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if current.Status == PeriodStatusArchived {
			return ErrPeriodArchived
		}
		if current.Status == PeriodStatusOpen {
			return ErrPeriodOpen
		}
		year, err := tx.GetYearForUpdate(ctx, current.YearID)
		if err != nil {
			return err
		}
		if year.IsClosed {
			return ErrYearClosed
		}
		if err := tx.UpdatePeriodStatus(ctx, periodID, PeriodStatusOpen); err != nil {
			return err
		}
		period = current
		period.Status = PeriodStatusOpen
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actor, "fiscal.period.reopen", period.ID, map[string]any{"name": period.Name})
	return period, nil
}

// CloseYear marks a fiscal year closed. All its periods must be
// closed first; the error names any that are still open.
func (s *Service) CloseYear(ctx context.Context, yearID int64, actor string) (Year, error) {
	var year Year
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetYearForUpdate(ctx, yearID)
		if err != nil {
			return err
		}
		if current.IsClosed {
			return ErrYearClosed
		}
		open, err := tx.OpenPeriodNames(ctx, yearID)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return &OpenPeriodsError{Names: open}
		}
		at := s.now()
		if err := tx.MarkYearClosed(ctx, yearID, actor, at); err != nil {
			return err
		}
		year = current
		year.IsClosed = true
		year.ClosedBy = &actor
		year.ClosedAt = &at
		return nil
	})
	if err != nil {
		return Year{}, err
	}
	s.record(ctx, actor, "fiscal.year.close", year.ID, map[string]any{"name": year.Name})
	return year, nil
}

// CurrentPeriod returns the period containing the supplied date.
func (s *Service) CurrentPeriod(ctx context.Context, date time.Time) (Period, error) {
	return s.repo.FindPeriodByDate(ctx, date)
}

// ListYears returns all fiscal years.
func (s *Service) ListYears(ctx context.Context) ([]Year, error) {
	return s.repo.ListYears(ctx)
}

// ListPeriods returns the periods of a fiscal year.
func (s *Service) ListPeriods(ctx context.Context, yearID int64) ([]Period, error) {
	return s.repo.ListPeriods(ctx, yearID)
}

func (s *Service) record(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "fiscal",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
