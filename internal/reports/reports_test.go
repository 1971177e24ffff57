package reports

import (
	"math"
	"testing"
	"time"

	"github.com/granite-erp/granite/internal/ledger"
	_ "github.com/granite-erp/granite/internal/testing/guard"
)

func balanceFixture() []AccountBalance {
	return []AccountBalance{
		{AccountID: 1, Code: "1000", Name: "Cash at Bank", Type: ledger.AccountTypeAsset, Opening: 5000, Debit: 12000, Credit: 4000},
		{AccountID: 2, Code: "1200", Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Debit: 3000, Credit: 3000},
		{AccountID: 3, Code: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Debit: 1000, Credit: 4000},
		{AccountID: 4, Code: "3000", Name: "Share Capital", Type: ledger.AccountTypeEquity, Credit: 5000},
		{AccountID: 5, Code: "4000", Name: "Sales Revenue", Type: ledger.AccountTypeRevenue, Credit: 9000},
		{AccountID: 6, Code: "6000", Name: "Rent Expense", Type: ledger.AccountTypeExpense, Debit: 2000},
	}
}

func TestBuildTrialBalanceColumnsBySign(t *testing.T) {
	tb := BuildTrialBalance("31 March 2024", balanceFixture())

	if len(tb.Rows) != 5 {
		t.Fatalf("expected 5 rows (zero balance skipped), got %d", len(tb.Rows))
	}
	byCode := map[string]TrialBalanceRow{}
	for _, row := range tb.Rows {
		byCode[row.AccountCode] = row
	}
	if byCode["1000"].Debit != 13000 || byCode["1000"].Credit != 0 {
		t.Fatalf("unexpected cash row %+v", byCode["1000"])
	}
	if byCode["2000"].Credit != 3000 {
		t.Fatalf("unexpected payables row %+v", byCode["2000"])
	}
	if byCode["4000"].Credit != 9000 {
		t.Fatalf("unexpected revenue row %+v", byCode["4000"])
	}
	if _, ok := byCode["1200"]; ok {
		t.Fatal("zero-balance account must be skipped")
	}
	if tb.TotalDebit != 15000 || tb.TotalCredit != 17000 {
		t.Fatalf("unexpected totals %.2f / %.2f", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestBuildTrialBalanceContraBalanceSwitchesColumn(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, Debit: 100, Credit: 600},
		{Code: "3000", Name: "Capital", Type: ledger.AccountTypeEquity, Debit: 500},
	}
	tb := BuildTrialBalance("31 March 2024", balances)

	if tb.Rows[0].Credit != 500 || tb.Rows[0].Debit != 0 {
		t.Fatalf("overdrawn asset must sit in the credit column, got %+v", tb.Rows[0])
	}
	if tb.Rows[1].Debit != 500 {
		t.Fatalf("debit-balance equity must sit in the debit column, got %+v", tb.Rows[1])
	}
	if !tb.IsBalanced {
		t.Fatal("expected balanced trial balance")
	}
}

func TestBuildBalanceSheetBalancesWithCurrentEarnings(t *testing.T) {
	bs := BuildBalanceSheet("31 March 2024", balanceFixture(), nil, BalanceSheetOptions{})

	if bs.TotalAssets != 13000 {
		t.Fatalf("unexpected total assets %.2f", bs.TotalAssets)
	}
	// Liabilities 3000 + capital 5000 + earnings (9000 - 2000).
	if bs.TotalLiabilitiesAndEquity != 15000 {
		t.Fatalf("unexpected liabilities+equity %.2f", bs.TotalLiabilitiesAndEquity)
	}

	last := bs.Equity.Rows[len(bs.Equity.Rows)-1]
	if last.AccountName != "Current Period Earnings" || last.Balance != 7000 {
		t.Fatalf("unexpected earnings row %+v", last)
	}
}

func TestBuildBalanceSheetIsBalancedFlag(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, Debit: 1000},
		{Code: "3000", Name: "Capital", Type: ledger.AccountTypeEquity, Credit: 1000},
	}
	bs := BuildBalanceSheet("31 March 2024", balances, nil, BalanceSheetOptions{})
	if !bs.IsBalanced {
		t.Fatalf("expected balanced sheet, assets %.2f vs %.2f", bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	}

	balances[1].Credit = 900
	bs = BuildBalanceSheet("31 March 2024", balances, nil, BalanceSheetOptions{})
	if bs.IsBalanced {
		t.Fatal("expected unbalanced sheet to be flagged")
	}
}

func TestBuildBalanceSheetComparative(t *testing.T) {
	current := balanceFixture()
	comparative := []AccountBalance{
		{Code: "1000", Name: "Cash at Bank", Type: ledger.AccountTypeAsset, Opening: 5000},
		{Code: "3000", Name: "Share Capital", Type: ledger.AccountTypeEquity, Credit: 5000},
	}
	bs := BuildBalanceSheet("31 March 2024", current, comparative, BalanceSheetOptions{})

	if bs.Assets.ComparativeTotal == nil || *bs.Assets.ComparativeTotal != 5000 {
		t.Fatalf("unexpected comparative assets %v", bs.Assets.ComparativeTotal)
	}
	if bs.Equity.ComparativeTotal == nil || *bs.Equity.ComparativeTotal != 5000 {
		t.Fatalf("unexpected comparative equity %v", bs.Equity.ComparativeTotal)
	}
}

func TestBuildProfitAndLoss(t *testing.T) {
	pl := BuildProfitAndLoss("1 January 2024 to 31 March 2024", balanceFixture(), nil)

	if pl.Revenue.Total != 9000 {
		t.Fatalf("unexpected revenue %.2f", pl.Revenue.Total)
	}
	if pl.Expenses.Total != 2000 {
		t.Fatalf("unexpected expenses %.2f", pl.Expenses.Total)
	}
	if pl.NetProfit != 7000 {
		t.Fatalf("unexpected net profit %.2f", pl.NetProfit)
	}
	if pl.ComparativeNetProfit != nil {
		t.Fatal("no comparative requested")
	}
}

func TestBuildProfitAndLossComparative(t *testing.T) {
	comparative := []AccountBalance{
		{Code: "4000", Name: "Sales Revenue", Type: ledger.AccountTypeRevenue, Credit: 6000},
		{Code: "6000", Name: "Rent Expense", Type: ledger.AccountTypeExpense, Debit: 2000},
	}
	pl := BuildProfitAndLoss("Q1 2024", balanceFixture(), comparative)

	if pl.ComparativeNetProfit == nil || *pl.ComparativeNetProfit != 4000 {
		t.Fatalf("unexpected comparative net profit %v", pl.ComparativeNetProfit)
	}
}

func TestBuildGeneralLedgerRunningBalance(t *testing.T) {
	account := ledger.Account{Code: "1000", Name: "Cash at Bank", Type: ledger.AccountTypeAsset}
	lines := []GeneralLedgerLine{
		{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), EntryNumber: "JE-000001", Debit: 1000},
		{Date: time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), EntryNumber: "JE-000002", Credit: 250},
		{Date: time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC), EntryNumber: "JE-000003", Debit: 75.5},
	}
	gl := BuildGeneralLedger("March 2024", account, 500, lines)

	if gl.OpeningBalance != 500 {
		t.Fatalf("unexpected opening %.2f", gl.OpeningBalance)
	}
	want := []float64{1500, 1250, 1325.5}
	for i, line := range gl.Lines {
		if math.Abs(line.Running-want[i]) > Epsilon {
			t.Fatalf("line %d: expected running %.2f, got %.2f", i, want[i], line.Running)
		}
	}
	if math.Abs(gl.ClosingBalance-1325.5) > Epsilon {
		t.Fatalf("unexpected closing %.2f", gl.ClosingBalance)
	}
}

func TestBuildGeneralLedgerEmpty(t *testing.T) {
	account := ledger.Account{Code: "1000", Name: "Cash"}
	gl := BuildGeneralLedger("March 2024", account, 200, nil)
	if gl.ClosingBalance != 200 || len(gl.Lines) != 0 {
		t.Fatalf("expected closing to equal opening, got %+v", gl)
	}
}

func TestBuildTaxComputationAdjustments(t *testing.T) {
	activity := []AccountBalance{
		{Code: "6100", Name: "Entertainment", Type: ledger.AccountTypeExpense, TaxAdjustment: true, Debit: 800},
		{Code: "4900", Name: "Exempt Dividend Income", Type: ledger.AccountTypeRevenue, TaxAdjustment: true, Credit: 300},
		{Code: "6000", Name: "Rent Expense", Type: ledger.AccountTypeExpense, Debit: 2000},
	}
	tc := BuildTaxComputation("FY2024", 7000, activity)

	if len(tc.Adjustments) != 2 {
		t.Fatalf("expected 2 adjustments, got %d", len(tc.Adjustments))
	}
	if tc.Adjustments[0].Balance != 800 {
		t.Fatalf("disallowed expense must add back, got %.2f", tc.Adjustments[0].Balance)
	}
	if tc.Adjustments[1].Balance != -300 {
		t.Fatalf("exempt income must deduct, got %.2f", tc.Adjustments[1].Balance)
	}
	if tc.TaxableIncome != 7500 {
		t.Fatalf("unexpected taxable income %.2f", tc.TaxableIncome)
	}
}

func TestBuildGSTReturn(t *testing.T) {
	lines := []TaxLine{
		{AccountType: ledger.AccountTypeRevenue, TaxCode: "SR", Credit: 10000, TaxAmount: 900},
		{AccountType: ledger.AccountTypeRevenue, TaxCode: "ZRL", Credit: 2000},
		{AccountType: ledger.AccountTypeRevenue, TaxCode: "ES", Credit: 500},
		{AccountType: ledger.AccountTypeExpense, TaxCode: "TX", Debit: 4000, TaxAmount: 360},
		{AccountType: ledger.AccountTypeAsset, TaxCode: "IM", Debit: 1500, TaxAmount: 135},
		{AccountType: ledger.AccountTypeExpense, TaxCode: "BL", Debit: 600, TaxAmount: 54},
		{AccountType: ledger.AccountTypeExpense, TaxCode: "XX", Debit: 999, TaxAmount: 99},
	}
	ret := BuildGSTReturn("Q1 2024", lines, nil, 0)

	if ret.StandardRatedSupplies != 10000 || ret.OutputTax != 900 {
		t.Fatalf("unexpected supplies %.2f output %.2f", ret.StandardRatedSupplies, ret.OutputTax)
	}
	if ret.ZeroRatedSupplies != 2000 || ret.ExemptSupplies != 500 {
		t.Fatalf("unexpected zero-rated %.2f exempt %.2f", ret.ZeroRatedSupplies, ret.ExemptSupplies)
	}
	if ret.TaxablePurchases != 6100 {
		t.Fatalf("unexpected purchases %.2f", ret.TaxablePurchases)
	}
	if ret.InputTax != 495 {
		t.Fatalf("blocked input tax must not be claimable, got %.2f", ret.InputTax)
	}
	if ret.NetPayable != 405 {
		t.Fatalf("unexpected net payable %.2f", ret.NetPayable)
	}
}

func TestBuildGSTReturnCreditNotesReduceSupplies(t *testing.T) {
	lines := []TaxLine{
		{AccountType: ledger.AccountTypeRevenue, TaxCode: "SR", Credit: 1000, TaxAmount: 90},
		{AccountType: ledger.AccountTypeRevenue, TaxCode: "SR", Debit: 200, TaxAmount: -18},
	}
	ret := BuildGSTReturn("Q1 2024", lines, StandardClassifier{}, 0)

	if ret.StandardRatedSupplies != 800 {
		t.Fatalf("unexpected supplies %.2f", ret.StandardRatedSupplies)
	}
	if ret.OutputTax != 72 {
		t.Fatalf("unexpected output tax %.2f", ret.OutputTax)
	}
}

func TestBuildGSTReturnDecimalAccumulation(t *testing.T) {
	var lines []TaxLine
	for i := 0; i < 100; i++ {
		lines = append(lines, TaxLine{AccountType: ledger.AccountTypeRevenue, TaxCode: "SR", Credit: 0.1, TaxAmount: 0.01})
	}
	ret := BuildGSTReturn("Q1 2024", lines, nil, 0)

	if ret.StandardRatedSupplies != 10 {
		t.Fatalf("expected exact 10.00 from 100 x 0.10, got %v", ret.StandardRatedSupplies)
	}
	if ret.OutputTax != 1 {
		t.Fatalf("expected exact 1.00 output tax, got %v", ret.OutputTax)
	}
}
