package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/ledger"
)

type stubReportRepo struct {
	balances map[time.Time][]AccountBalance
	activity []AccountBalance
	account  ledger.Account
	lines    []GeneralLedgerLine
	taxLines []TaxLine

	activityCalls [][2]time.Time
}

func (r *stubReportRepo) BalancesAsOf(ctx context.Context, asOf time.Time) ([]AccountBalance, error) {
	return r.balances[asOf], nil
}

func (r *stubReportRepo) ActivityBetween(ctx context.Context, start, end time.Time) ([]AccountBalance, error) {
	r.activityCalls = append(r.activityCalls, [2]time.Time{start, end})
	return r.activity, nil
}

func (r *stubReportRepo) AccountLines(ctx context.Context, accountID int64, start, end time.Time, dim1, dim2 *int64) ([]GeneralLedgerLine, error) {
	return r.lines, nil
}

func (r *stubReportRepo) AccountByID(ctx context.Context, accountID int64) (ledger.Account, error) {
	if r.account.ID != accountID {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return r.account, nil
}

func (r *stubReportRepo) TaxLines(ctx context.Context, start, end time.Time) ([]TaxLine, error) {
	return r.taxLines, nil
}

type stubCalendar struct {
	year fiscal.Year
}

func (c *stubCalendar) GetYear(ctx context.Context, yearID int64) (fiscal.Year, error) {
	if c.year.ID != yearID {
		return fiscal.Year{}, fiscal.ErrYearNotFound
	}
	return c.year, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestServiceBalanceSheetFetchesBothSnapshots(t *testing.T) {
	asOf := day(2024, time.March, 31)
	compDate := day(2023, time.March, 31)
	repo := &stubReportRepo{balances: map[time.Time][]AccountBalance{
		asOf: {
			{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, Debit: 1000},
			{Code: "3000", Name: "Capital", Type: ledger.AccountTypeEquity, Credit: 1000},
		},
		compDate: {
			{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, Debit: 400},
			{Code: "3000", Name: "Capital", Type: ledger.AccountTypeEquity, Credit: 400},
		},
	}}
	service := NewService(repo, &stubCalendar{})

	bs, err := service.BalanceSheet(context.Background(), BalanceSheetRequest{AsOf: asOf, Comparative: &compDate})
	require.NoError(t, err)
	assert.Equal(t, "31 March 2024", bs.AsOfLabel)
	assert.Equal(t, float64(1000), bs.TotalAssets)
	require.NotNil(t, bs.Assets.ComparativeTotal)
	assert.Equal(t, float64(400), *bs.Assets.ComparativeTotal)
	assert.True(t, bs.IsBalanced)
}

func TestServiceGeneralLedgerOpeningBalance(t *testing.T) {
	start := day(2024, time.March, 1)
	repo := &stubReportRepo{
		account: ledger.Account{ID: 1, Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset},
		balances: map[time.Time][]AccountBalance{
			// Balance the day before the window starts.
			day(2024, time.February, 29): {
				{AccountID: 1, Code: "1000", Type: ledger.AccountTypeAsset, Debit: 750},
			},
		},
		lines: []GeneralLedgerLine{{EntryNumber: "JE-000009", Debit: 250}},
	}
	service := NewService(repo, &stubCalendar{})

	gl, err := service.GeneralLedger(context.Background(), GeneralLedgerRequest{
		AccountID: 1,
		Start:     start,
		End:       day(2024, time.March, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(750), gl.OpeningBalance)
	assert.Equal(t, float64(1000), gl.ClosingBalance)
}

func TestServiceGeneralLedgerUnknownAccount(t *testing.T) {
	repo := &stubReportRepo{account: ledger.Account{ID: 1}}
	service := NewService(repo, &stubCalendar{})

	_, err := service.GeneralLedger(context.Background(), GeneralLedgerRequest{
		AccountID: 99,
		Start:     day(2024, time.March, 1),
		End:       day(2024, time.March, 31),
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestServiceIncomeTaxComputationUsesYearRange(t *testing.T) {
	start := day(2024, time.January, 1)
	end := day(2024, time.December, 31)
	repo := &stubReportRepo{activity: []AccountBalance{
		{Code: "4000", Name: "Sales", Type: ledger.AccountTypeRevenue, Credit: 9000},
		{Code: "6000", Name: "Rent", Type: ledger.AccountTypeExpense, Debit: 2000},
		{Code: "6100", Name: "Entertainment", Type: ledger.AccountTypeExpense, TaxAdjustment: true, Debit: 800},
	}}
	calendar := &stubCalendar{year: fiscal.Year{ID: 5, Name: "FY2024", StartDate: start, EndDate: end}}
	service := NewService(repo, calendar)

	tc, err := service.IncomeTaxComputation(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "FY2024", tc.YearLabel)
	// Net profit 9000 - 2000 - 800, entertainment added back.
	assert.InDelta(t, 6200, tc.NetProfit, Epsilon)
	assert.InDelta(t, 7000, tc.TaxableIncome, Epsilon)

	require.Len(t, repo.activityCalls, 1)
	assert.True(t, repo.activityCalls[0][0].Equal(start))
	assert.True(t, repo.activityCalls[0][1].Equal(end))
}

func TestServiceIncomeTaxComputationUnknownYear(t *testing.T) {
	service := NewService(&stubReportRepo{}, &stubCalendar{year: fiscal.Year{ID: 5}})
	_, err := service.IncomeTaxComputation(context.Background(), 99)
	assert.ErrorIs(t, err, fiscal.ErrYearNotFound)
}
