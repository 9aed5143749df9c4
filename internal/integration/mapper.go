package integration

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/amount"
)

func monetary(qty, unitCost decimal.Decimal) decimal.Decimal {
	return amount.Round(qty.Mul(unitCost))
}

func formatQty(d decimal.Decimal) string {
	return d.String()
}

func formatPrice(d decimal.Decimal) string {
	return amount.Round(d).String()
}
