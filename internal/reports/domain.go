package reports

import (
	"time"

	"github.com/granite-erp/granite/internal/ledger"
)

// Epsilon is the tolerance used when asserting that report totals and
// the underlying ledger balance out at two decimal places.
const Epsilon = 0.005

// AccountBalance is the raw aggregation record for one account: its
// opening balance plus the summed posted debits and credits of the
// query window. The raw sum is debit-positive.
type AccountBalance struct {
	AccountID     int64
	Code          string
	Name          string
	Type          ledger.AccountType
	TaxAdjustment bool
	Opening       float64
	Debit         float64
	Credit        float64
}

// Raw computes the debit-positive balance.
func (a AccountBalance) Raw() float64 {
	return a.Opening + a.Debit - a.Credit
}

// Display converts the raw balance to the account's natural sign:
// credit-normal accounts (Liability, Equity, Revenue) are negated so a
// normal balance displays positive.
func (a AccountBalance) Display() float64 {
	raw := a.Raw()
	if a.Type.DebitNormal() {
		return raw
	}
	return -raw
}

// Row is one account line inside a report section.
type Row struct {
	AccountCode string
	AccountName string
	Balance     float64
	Comparative *float64
}

// Section groups ordered rows under a label with totals.
type Section struct {
	Label            string
	Rows             []Row
	Total            float64
	ComparativeTotal *float64
}

// BalanceSheet is the structured balance sheet result.
type BalanceSheet struct {
	Title                     string
	AsOfLabel                 string
	Assets                    Section
	Liabilities               Section
	Equity                    Section
	TotalAssets               float64
	TotalLiabilitiesAndEquity float64
	IsBalanced                bool
}

// ProfitAndLoss is the structured profit and loss result.
type ProfitAndLoss struct {
	Title                string
	PeriodLabel          string
	Revenue              Section
	Expenses             Section
	NetProfit            float64
	ComparativeNetProfit *float64
}

// TrialBalanceRow places an account's absolute balance in the debit
// or credit column according to the sign of its raw balance.
type TrialBalanceRow struct {
	AccountCode string
	AccountName string
	Debit       float64
	Credit      float64
}

// TrialBalance is the structured trial balance result.
type TrialBalance struct {
	Title       string
	AsOfLabel   string
	Rows        []TrialBalanceRow
	TotalDebit  float64
	TotalCredit float64
	IsBalanced  bool
}

// GeneralLedgerLine is one posted line with its running balance.
type GeneralLedgerLine struct {
	Date        time.Time
	EntryNumber string
	Description string
	Debit       float64
	Credit      float64
	Running     float64
}

// GeneralLedger is the structured general ledger listing for one account.
type GeneralLedger struct {
	Title          string
	PeriodLabel    string
	AccountCode    string
	AccountName    string
	OpeningBalance float64
	Lines          []GeneralLedgerLine
	ClosingBalance float64
}

// TaxComputation derives taxable income from net profit and the
// activity of tax-adjustment accounts.
type TaxComputation struct {
	Title         string
	YearLabel     string
	NetProfit     float64
	Adjustments   []Row
	TaxableIncome float64
}

// GSTReturn summarises supplies, purchases, and tax for a period.
type GSTReturn struct {
	Title                 string
	PeriodLabel           string
	StandardRatedSupplies float64
	ZeroRatedSupplies     float64
	ExemptSupplies        float64
	OutputTax             float64
	TaxablePurchases      float64
	InputTax              float64
	Adjustments           float64
	NetPayable            float64
}

// TaxLine is the raw record the GST return classifies: one posted
// line's amounts with its tax code and account category.
type TaxLine struct {
	AccountType ledger.AccountType
	TaxCode     string
	Debit       float64
	Credit      float64
	TaxAmount   float64
}
