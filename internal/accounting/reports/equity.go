package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
)

// EquityStatement reconciles opening and closing capital.
type EquityStatement struct {
	OpeningEquity decimal.Decimal
	NetIncome     decimal.Decimal
	ClosingEquity decimal.Decimal
}

// BuildEquityStatement reads opening capital from the carried-forward
// balance of the capital account.
func BuildEquityStatement(opening []journals.OpeningBalance, netIncome decimal.Decimal) EquityStatement {
	var capital decimal.Decimal
	for _, ob := range opening {
		if accounts.SameAccount(ob.Account, accounts.CapitalAccount) {
			capital = capital.Add(ob.Credit).Sub(ob.Debit)
		}
	}
	return EquityStatement{
		OpeningEquity: capital,
		NetIncome:     netIncome,
		ClosingEquity: capital.Add(netIncome),
	}
}

// Rows flattens the statement for tabular output.
func (s EquityStatement) Rows() []StatementLine {
	return []StatementLine{
		{Label: "Modal Awal", Amount: s.OpeningEquity},
		{Label: "Laba (Rugi) Bersih", Amount: s.NetIncome},
		{Label: "Modal Akhir", Amount: s.ClosingEquity},
	}
}
