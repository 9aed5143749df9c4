package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

// MovementKind enumerates supported inventory movements.
type MovementKind string

const (
	// MovementPurchase represents an inbound purchase.
	MovementPurchase MovementKind = "PURCHASE"
	// MovementSale represents an outbound sale.
	MovementSale MovementKind = "SALE"
)

// Item is the running valuation of one stock item.
type Item struct {
	Name         string
	OpeningQty   decimal.Decimal
	PurchasedQty decimal.Decimal
	SoldQty      decimal.Decimal
	EndingQty    decimal.Decimal
	AvgUnitCost  decimal.Decimal
	TotalValue   decimal.Decimal
}

// Movement is one line of the stock card. Sales carry negative Qty and Total.
type Movement struct {
	ID             uuid.UUID
	Date           time.Time
	Kind           MovementKind
	Item           string
	Qty            decimal.Decimal
	UnitCost       decimal.Decimal
	Total          decimal.Decimal
	SalePrice      decimal.Decimal
	ResultingStock decimal.Decimal
	Memo           string
	TransactionID  int64
}

// PurchaseInput describes a purchase of stock.
type PurchaseInput struct {
	Item      string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	Date      time.Time
	Memo      string
}

// SaleInput describes a sale of stock. SalePrice is informational; the
// subledger values the sale at moving average cost.
type SaleInput struct {
	Item      string
	Qty       decimal.Decimal
	SalePrice decimal.Decimal
	Date      time.Time
	Memo      string
}

// Sale is the outcome of RecordSale.
type Sale struct {
	Item     Item
	Movement Movement
	COGS     decimal.Decimal
}

var (
	// ErrItemRequired indicates a missing item name.
	ErrItemRequired = shared.Validation("inventory: item name required")
	// ErrInvalidQuantity indicates invalid qty.
	ErrInvalidQuantity = shared.Validation("inventory: quantity must be greater than zero")
	// ErrInvalidUnitPrice indicates invalid price value.
	ErrInvalidUnitPrice = shared.Validation("inventory: unit price must be greater than zero")
	// ErrInvalidSalePrice rejects a negative selling price. Zero is allowed.
	ErrInvalidSalePrice = shared.Validation("inventory: sale price must not be negative")
	// ErrInvalidOpeningStock indicates negative opening quantity or cost.
	ErrInvalidOpeningStock = shared.Validation("inventory: opening stock must not be negative")
	// ErrItemNotFound indicates the item has never been stocked.
	ErrItemNotFound = shared.NotFound("inventory: item not found")
	// ErrMovementNotFound indicates a missing stock card line.
	ErrMovementNotFound = shared.NotFound("inventory: movement not found")
	// ErrInsufficientStock triggered when a sale exceeds the quantity on hand.
	ErrInsufficientStock = shared.Precondition("inventory: insufficient stock")
	// ErrNegativeStock triggered when reversing a purchase would leave negative qty.
	ErrNegativeStock = shared.Precondition("inventory: negative stock not allowed")
	// ErrItemHasMovements indicates opening stock can no longer be changed.
	ErrItemHasMovements = shared.Precondition("inventory: item already has movements this period")
)
