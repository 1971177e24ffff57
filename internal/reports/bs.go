package reports

import (
	"math"

	"github.com/granite-erp/granite/internal/ledger"
)

// BalanceSheetOptions control the balance sheet build.
type BalanceSheetOptions struct {
	IncludeZero bool
}

// BuildBalanceSheet partitions the balances into assets, liabilities,
// and equity with natural-sign display balances. A comparative set, if
// supplied, is matched by account code.
func BuildBalanceSheet(asOfLabel string, current, comparative []AccountBalance, opts BalanceSheetOptions) BalanceSheet {
	bs := BalanceSheet{
		Title:       "Balance Sheet",
		AsOfLabel:   asOfLabel,
		Assets:      Section{Label: "Assets"},
		Liabilities: Section{Label: "Liabilities"},
		Equity:      Section{Label: "Equity"},
	}
	compByCode := indexDisplay(comparative)
	hasComparative := comparative != nil

	// Unclosed revenue and expense balances roll into equity as current
	// earnings, otherwise the statement only balances after year-end
	// closing entries.
	var earnings float64
	var compEarnings float64
	for _, b := range comparative {
		if b.Type == ledger.AccountTypeRevenue || b.Type == ledger.AccountTypeExpense {
			compEarnings += -b.Raw()
		}
	}

	for _, b := range current {
		balance := b.Display()
		var comp *float64
		if hasComparative {
			v := compByCode[b.Code]
			comp = &v
		}
		if !opts.IncludeZero && math.Abs(balance) < Epsilon && (comp == nil || math.Abs(*comp) < Epsilon) {
			continue
		}
		row := Row{AccountCode: b.Code, AccountName: b.Name, Balance: balance, Comparative: comp}
		var section *Section
		switch b.Type {
		case ledger.AccountTypeAsset:
			section = &bs.Assets
		case ledger.AccountTypeLiability:
			section = &bs.Liabilities
		case ledger.AccountTypeEquity:
			section = &bs.Equity
		default:
			earnings += -b.Raw()
			continue
		}
		section.Rows = append(section.Rows, row)
		section.Total += row.Balance
		if comp != nil {
			addComparative(section, *comp)
		}
	}

	if opts.IncludeZero || math.Abs(earnings) >= Epsilon || (hasComparative && math.Abs(compEarnings) >= Epsilon) {
		row := Row{AccountCode: "", AccountName: "Current Period Earnings", Balance: earnings}
		if hasComparative {
			v := compEarnings
			row.Comparative = &v
		}
		bs.Equity.Rows = append(bs.Equity.Rows, row)
		bs.Equity.Total += earnings
		if hasComparative {
			addComparative(&bs.Equity, compEarnings)
		}
	}

	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total + bs.Equity.Total
	bs.IsBalanced = math.Abs(bs.TotalAssets-bs.TotalLiabilitiesAndEquity) < Epsilon
	return bs
}

func indexDisplay(balances []AccountBalance) map[string]float64 {
	if balances == nil {
		return nil
	}
	out := make(map[string]float64, len(balances))
	for _, b := range balances {
		out[b.Code] = b.Display()
	}
	return out
}

func addComparative(section *Section, value float64) {
	if section.ComparativeTotal == nil {
		section.ComparativeTotal = new(float64)
	}
	*section.ComparativeTotal += value
}
