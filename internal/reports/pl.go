package reports

import (
	"math"

	"github.com/granite-erp/granite/internal/ledger"
)

// BuildProfitAndLoss partitions period activity into revenue and
// expense sections with natural-sign amounts. A comparative activity
// set, if supplied, is matched by account code.
func BuildProfitAndLoss(periodLabel string, current, comparative []AccountBalance) ProfitAndLoss {
	pl := ProfitAndLoss{
		Title:       "Profit & Loss Statement",
		PeriodLabel: periodLabel,
		Revenue:     Section{Label: "Revenue"},
		Expenses:    Section{Label: "Expenses"},
	}
	compByCode := indexDisplay(comparative)
	hasComparative := comparative != nil

	for _, b := range current {
		var section *Section
		switch b.Type {
		case ledger.AccountTypeRevenue:
			section = &pl.Revenue
		case ledger.AccountTypeExpense:
			section = &pl.Expenses
		default:
			continue
		}
		row := Row{AccountCode: b.Code, AccountName: b.Name, Balance: b.Display()}
		if hasComparative {
			v := compByCode[b.Code]
			row.Comparative = &v
		}
		if math.Abs(row.Balance) < Epsilon && (row.Comparative == nil || math.Abs(*row.Comparative) < Epsilon) {
			continue
		}
		section.Rows = append(section.Rows, row)
		section.Total += row.Balance
		if row.Comparative != nil {
			addComparative(section, *row.Comparative)
		}
	}

	pl.NetProfit = pl.Revenue.Total - pl.Expenses.Total
	if hasComparative {
		var revenue, expenses float64
		if pl.Revenue.ComparativeTotal != nil {
			revenue = *pl.Revenue.ComparativeTotal
		}
		if pl.Expenses.ComparativeTotal != nil {
			expenses = *pl.Expenses.ComparativeTotal
		}
		net := revenue - expenses
		pl.ComparativeNetProfit = &net
	}
	return pl
}
