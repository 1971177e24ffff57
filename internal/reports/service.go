package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/ledger"
)

// RepositoryPort is the aggregation surface the service depends on.
type RepositoryPort interface {
	BalancesAsOf(ctx context.Context, asOf time.Time) ([]AccountBalance, error)
	ActivityBetween(ctx context.Context, start, end time.Time) ([]AccountBalance, error)
	AccountLines(ctx context.Context, accountID int64, start, end time.Time, dim1, dim2 *int64) ([]GeneralLedgerLine, error)
	AccountByID(ctx context.Context, accountID int64) (ledger.Account, error)
	TaxLines(ctx context.Context, start, end time.Time) ([]TaxLine, error)
}

// CalendarPort resolves fiscal years for year-scoped reports.
type CalendarPort interface {
	GetYear(ctx context.Context, yearID int64) (fiscal.Year, error)
}

// Service produces financial reports by recomputing from posted entries.
type Service struct {
	repo       RepositoryPort
	calendar   CalendarPort
	classifier TaxCodeClassifier
}

// NewService constructs Service with the default GST tax code set.
func NewService(repo RepositoryPort, calendar CalendarPort) *Service {
	return &Service{repo: repo, calendar: calendar, classifier: StandardClassifier{}}
}

// BalanceSheetRequest parameterises the balance sheet.
type BalanceSheetRequest struct {
	AsOf        time.Time
	Comparative *time.Time
	IncludeZero bool
}

// BalanceSheet builds the balance sheet as of a date, optionally with
// a comparative column. The two snapshots are fetched concurrently.
func (s *Service) BalanceSheet(ctx context.Context, req BalanceSheetRequest) (BalanceSheet, error) {
	var current, comparative []AccountBalance

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.repo.BalancesAsOf(gctx, req.AsOf)
		return err
	})
	if req.Comparative != nil {
		compDate := *req.Comparative
		g.Go(func() error {
			var err error
			comparative, err = s.repo.BalancesAsOf(gctx, compDate)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return BalanceSheet{}, fmt.Errorf("reports: balance sheet: %w", err)
	}

	opts := BalanceSheetOptions{IncludeZero: req.IncludeZero}
	return BuildBalanceSheet(dateLabel(req.AsOf), current, comparative, opts), nil
}

// ProfitAndLossRequest parameterises the profit and loss statement.
type ProfitAndLossRequest struct {
	Start            time.Time
	End              time.Time
	ComparativeStart *time.Time
	ComparativeEnd   *time.Time
}

// ProfitAndLoss builds the statement over [Start, End], optionally
// with a comparative window.
func (s *Service) ProfitAndLoss(ctx context.Context, req ProfitAndLossRequest) (ProfitAndLoss, error) {
	var current, comparative []AccountBalance

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.repo.ActivityBetween(gctx, req.Start, req.End)
		return err
	})
	if req.ComparativeStart != nil && req.ComparativeEnd != nil {
		start, end := *req.ComparativeStart, *req.ComparativeEnd
		g.Go(func() error {
			var err error
			comparative, err = s.repo.ActivityBetween(gctx, start, end)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ProfitAndLoss{}, fmt.Errorf("reports: profit and loss: %w", err)
	}

	return BuildProfitAndLoss(rangeLabel(req.Start, req.End), current, comparative), nil
}

// TrialBalance builds the trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	balances, err := s.repo.BalancesAsOf(ctx, asOf)
	if err != nil {
		return TrialBalance{}, fmt.Errorf("reports: trial balance: %w", err)
	}
	return BuildTrialBalance(dateLabel(asOf), balances), nil
}

// GeneralLedgerRequest parameterises the general ledger listing.
type GeneralLedgerRequest struct {
	AccountID  int64
	Start      time.Time
	End        time.Time
	Dimension1 *int64
	Dimension2 *int64
}

// GeneralLedger lists an account's posted lines over [Start, End] with
// running balances. The opening balance is the account's balance the
// day before the window starts.
func (s *Service) GeneralLedger(ctx context.Context, req GeneralLedgerRequest) (GeneralLedger, error) {
	account, err := s.repo.AccountByID(ctx, req.AccountID)
	if err != nil {
		return GeneralLedger{}, err
	}

	before := req.Start.AddDate(0, 0, -1)
	balances, err := s.repo.BalancesAsOf(ctx, before)
	if err != nil {
		return GeneralLedger{}, fmt.Errorf("reports: general ledger: %w", err)
	}
	var opening float64
	for _, b := range balances {
		if b.AccountID == req.AccountID {
			opening = b.Raw()
			break
		}
	}

	lines, err := s.repo.AccountLines(ctx, req.AccountID, req.Start, req.End, req.Dimension1, req.Dimension2)
	if err != nil {
		return GeneralLedger{}, fmt.Errorf("reports: general ledger: %w", err)
	}
	return BuildGeneralLedger(rangeLabel(req.Start, req.End), account, opening, lines), nil
}

// IncomeTaxComputation derives taxable income for one fiscal year.
func (s *Service) IncomeTaxComputation(ctx context.Context, yearID int64) (TaxComputation, error) {
	year, err := s.calendar.GetYear(ctx, yearID)
	if err != nil {
		return TaxComputation{}, err
	}

	activity, err := s.repo.ActivityBetween(ctx, year.StartDate, year.EndDate)
	if err != nil {
		return TaxComputation{}, fmt.Errorf("reports: tax computation: %w", err)
	}

	var netProfit float64
	for _, b := range activity {
		switch b.Type {
		case ledger.AccountTypeRevenue, ledger.AccountTypeExpense:
			netProfit += -b.Raw()
		}
	}
	return BuildTaxComputation(year.Name, netProfit, activity), nil
}

// GSTReturnRequest parameterises the GST return.
type GSTReturnRequest struct {
	Start       time.Time
	End         time.Time
	Adjustments float64
}

// GSTReturn aggregates the tagged posted lines of [Start, End].
func (s *Service) GSTReturn(ctx context.Context, req GSTReturnRequest) (GSTReturn, error) {
	lines, err := s.repo.TaxLines(ctx, req.Start, req.End)
	if err != nil {
		return GSTReturn{}, fmt.Errorf("reports: gst return: %w", err)
	}
	return BuildGSTReturn(rangeLabel(req.Start, req.End), lines, s.classifier, req.Adjustments), nil
}

func dateLabel(t time.Time) string {
	return t.Format("2 January 2006")
}

func rangeLabel(start, end time.Time) string {
	return fmt.Sprintf("%s to %s", start.Format("2 January 2006"), end.Format("2 January 2006"))
}
