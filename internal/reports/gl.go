package reports

import (
	"github.com/granite-erp/granite/internal/ledger"
)

// BuildGeneralLedger annotates the account's posted lines with a
// running balance, starting from the opening balance (the account's
// balance as of the day before the period start).
func BuildGeneralLedger(periodLabel string, account ledger.Account, opening float64, lines []GeneralLedgerLine) GeneralLedger {
	gl := GeneralLedger{
		Title:          "General Ledger",
		PeriodLabel:    periodLabel,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		OpeningBalance: opening,
		ClosingBalance: opening,
	}
	running := opening
	for _, line := range lines {
		running += line.Debit - line.Credit
		line.Running = running
		gl.Lines = append(gl.Lines, line)
	}
	gl.ClosingBalance = running
	return gl
}
