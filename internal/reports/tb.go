package reports

import "math"

// BuildTrialBalance places every non-zero account balance into the
// debit or credit column by the sign of its raw balance, so a
// debit-normal account carrying a contra credit balance lands in the
// credit column. Given balanced entries the columns always sum equal.
func BuildTrialBalance(asOfLabel string, balances []AccountBalance) TrialBalance {
	tb := TrialBalance{Title: "Trial Balance", AsOfLabel: asOfLabel}
	for _, b := range balances {
		raw := b.Raw()
		if math.Abs(raw) < Epsilon {
			continue
		}
		row := TrialBalanceRow{AccountCode: b.Code, AccountName: b.Name}
		if raw > 0 {
			row.Debit = raw
		} else {
			row.Credit = -raw
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
	}
	tb.IsBalanced = math.Abs(tb.TotalDebit-tb.TotalCredit) < Epsilon
	return tb
}
