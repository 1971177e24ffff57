package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/granite-erp/granite/internal/ledger"
)

// TaxCodeClassifier maps a line's tax code onto a GST return box.
type TaxCodeClassifier interface {
	Classify(code string) TaxCodeClass
}

// TaxCodeClass names the GST return box a tax code belongs to.
type TaxCodeClass int

const (
	TaxClassNone TaxCodeClass = iota
	TaxClassStandardRated
	TaxClassZeroRated
	TaxClassExempt
	TaxClassTaxablePurchase
	TaxClassBlockedPurchase
)

// StandardClassifier implements the default tax code set. Unknown
// codes fall outside the return.
type StandardClassifier struct{}

func (StandardClassifier) Classify(code string) TaxCodeClass {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "SR":
		return TaxClassStandardRated
	case "ZRL", "ZRE":
		return TaxClassZeroRated
	case "ES":
		return TaxClassExempt
	case "TX", "IM":
		return TaxClassTaxablePurchase
	case "BL":
		return TaxClassBlockedPurchase
	default:
		return TaxClassNone
	}
}

// BuildGSTReturn aggregates the tagged posted lines of a period into a
// GST return. Supply boxes come from revenue lines at their natural
// credit sign; purchase boxes come from expense and asset lines at
// their natural debit sign. Blocked purchases count toward taxable
// purchases but their tax is not claimable as input tax. Sums are
// carried in decimal so repeated additions of two-decimal amounts do
// not drift.
func BuildGSTReturn(periodLabel string, lines []TaxLine, classifier TaxCodeClassifier, adjustments float64) GSTReturn {
	if classifier == nil {
		classifier = StandardClassifier{}
	}

	var (
		standard  decimal.Decimal
		zeroRated decimal.Decimal
		exempt    decimal.Decimal
		outputTax decimal.Decimal
		purchases decimal.Decimal
		inputTax  decimal.Decimal
	)

	for _, line := range lines {
		class := classifier.Classify(line.TaxCode)
		if class == TaxClassNone {
			continue
		}
		tax := decimal.NewFromFloat(line.TaxAmount)

		switch line.AccountType {
		case ledger.AccountTypeRevenue:
			// Supplies are credit-natural.
			amount := decimal.NewFromFloat(line.Credit).Sub(decimal.NewFromFloat(line.Debit))
			switch class {
			case TaxClassStandardRated:
				standard = standard.Add(amount)
				outputTax = outputTax.Add(tax)
			case TaxClassZeroRated:
				zeroRated = zeroRated.Add(amount)
			case TaxClassExempt:
				exempt = exempt.Add(amount)
			}
		case ledger.AccountTypeExpense, ledger.AccountTypeAsset:
			amount := decimal.NewFromFloat(line.Debit).Sub(decimal.NewFromFloat(line.Credit))
			switch class {
			case TaxClassTaxablePurchase:
				purchases = purchases.Add(amount)
				inputTax = inputTax.Add(tax)
			case TaxClassBlockedPurchase:
				purchases = purchases.Add(amount)
			}
		}
	}

	adj := decimal.NewFromFloat(adjustments)
	net := outputTax.Sub(inputTax).Add(adj)

	return GSTReturn{
		Title:                 "GST Return",
		PeriodLabel:           periodLabel,
		StandardRatedSupplies: round2(standard),
		ZeroRatedSupplies:     round2(zeroRated),
		ExemptSupplies:        round2(exempt),
		OutputTax:             round2(outputTax),
		TaxablePurchases:      round2(purchases),
		InputTax:              round2(inputTax),
		Adjustments:           round2(adj),
		NetPayable:            round2(net),
	}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
