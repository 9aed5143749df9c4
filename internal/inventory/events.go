package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRecordedEvent represents a purchase ready for ledger posting.
type PurchaseRecordedEvent struct {
	MovementID uuid.UUID
	Item       string
	Qty        decimal.Decimal
	UnitPrice  decimal.Decimal
	Date       time.Time
	Memo       string
}

// Total is the purchase value.
func (e PurchaseRecordedEvent) Total() decimal.Decimal {
	return e.Qty.Mul(e.UnitPrice)
}

// SaleRecordedEvent represents a sale ready for ledger posting.
type SaleRecordedEvent struct {
	MovementID uuid.UUID
	Item       string
	Qty        decimal.Decimal
	SalePrice  decimal.Decimal
	COGS       decimal.Decimal
	Date       time.Time
	Memo       string
}

// Revenue is the sale value at the selling price.
func (e SaleRecordedEvent) Revenue() decimal.Decimal {
	return e.Qty.Mul(e.SalePrice)
}

// PurchaseEvent converts the purchase movement to an event.
func (m Movement) PurchaseEvent() PurchaseRecordedEvent {
	return PurchaseRecordedEvent{MovementID: m.ID, Item: m.Item, Qty: m.Qty, UnitPrice: m.UnitCost, Date: m.Date, Memo: m.Memo}
}

// SaleEvent converts the sale movement to an event.
func (m Movement) SaleEvent() SaleRecordedEvent {
	return SaleRecordedEvent{MovementID: m.ID, Item: m.Item, Qty: m.Qty.Neg(), SalePrice: m.SalePrice, COGS: m.Total.Neg(), Date: m.Date, Memo: m.Memo}
}
