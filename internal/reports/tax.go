package reports

import (
	"math"

	"github.com/granite-erp/granite/internal/ledger"
)

// BuildTaxComputation derives taxable income: the year's net profit
// plus the sign-adjusted activity of every tax-adjustment account. An
// expense-type adjustment adds back to taxable income; an income-type
// adjustment reduces it.
func BuildTaxComputation(yearLabel string, netProfit float64, activity []AccountBalance) TaxComputation {
	tc := TaxComputation{
		Title:         "Income Tax Computation",
		YearLabel:     yearLabel,
		NetProfit:     netProfit,
		TaxableIncome: netProfit,
	}
	for _, b := range activity {
		if !b.TaxAdjustment {
			continue
		}
		amount := b.Display()
		if math.Abs(amount) < Epsilon {
			continue
		}
		var adjustment float64
		switch b.Type {
		case ledger.AccountTypeExpense:
			adjustment = amount
		case ledger.AccountTypeRevenue:
			adjustment = -amount
		default:
			// Tax adjustments only apply to P&L accounts.
			continue
		}
		tc.Adjustments = append(tc.Adjustments, Row{
			AccountCode: b.Code,
			AccountName: b.Name,
			Balance:     adjustment,
		})
		tc.TaxableIncome += adjustment
	}
	return tc
}
