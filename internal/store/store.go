// Package store defines the tabular persistence format of the ledger: one
// table per entity, rewritten in full on every save.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/amount"
)

// DateLayout is the ISO-8601 calendar date used in every table.
const DateLayout = "2006-01-02"

// Entity names, used as sheet and table names.
const (
	EntityPeriod              = "period"
	EntityJournal             = "journal"
	EntityOpeningTrialBalance = "opening_trial_balance"
	EntityTrialBalance        = "trial_balance"
	EntityInventory           = "inventory"
	EntityMovements           = "inventory_movements"
)

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("store: no saved ledger")

// Repository persists a whole dataset at once.
type Repository interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, ds Dataset) error
}

// PeriodRow persists the current period.
type PeriodRow struct {
	Label     string
	StartDate string
	EndDate   string
	Status    string
}

// JournalRow persists one journal line; opening balances use source OPENING
// and transaction id 0.
type JournalRow struct {
	TransactionID int64
	Date          string
	Account       string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Source        string
	Memo          string
}

// TrialBalanceRow persists one trial balance line. Balance is empty on the
// TOTAL row.
type TrialBalanceRow struct {
	No      int
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.NullDecimal
}

// InventoryItemRow persists the valuation of one item.
type InventoryItemRow struct {
	Name         string
	OpeningQty   decimal.Decimal
	PurchasedQty decimal.Decimal
	SoldQty      decimal.Decimal
	EndingQty    decimal.Decimal
	AvgUnitCost  decimal.Decimal
	TotalValue   decimal.Decimal
}

// MovementRow persists one stock card line.
type MovementRow struct {
	ID             string
	Date           string
	Kind           string
	Item           string
	Qty            decimal.Decimal
	UnitCost       decimal.Decimal
	Total          decimal.Decimal
	SalePrice      decimal.Decimal
	ResultingStock decimal.Decimal
	Memo           string
	TransactionID  int64
}

// Dataset is everything that is saved for the current period.
type Dataset struct {
	Period              PeriodRow
	Journal             []JournalRow
	OpeningTrialBalance []TrialBalanceRow
	TrialBalance        []TrialBalanceRow
	Items               []InventoryItemRow
	Movements           []MovementRow
	// Warnings collects cells that could not be read as numbers during Load.
	Warnings []string
}

// FormatDate renders a calendar date, empty for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate reads a calendar date, accepting a full timestamp as well.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: invalid date %q", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// AmountReader parses cells and remembers the ones that fell back to zero.
type AmountReader struct {
	Warnings []string
}

// Machine parses a value written by this package, falling back to the
// locale-aware parser for hand-edited text.
func (r *AmountReader) Machine(where, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return d
	}
	return r.Text(where, raw)
}

// Text parses a human-formatted value such as "Rp 1.500.000,50".
func (r *AmountReader) Text(where, raw string) decimal.Decimal {
	d, ok := amount.TryParse(raw)
	if !ok {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %q read as 0", where, raw))
	}
	return d
}

// Memory keeps the last saved dataset in memory.
type Memory struct {
	mu    sync.Mutex
	saved *Dataset
	saves int
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the last saved dataset.
func (m *Memory) Load(ctx context.Context) (Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Dataset{}, ErrEmpty
	}
	return clone(*m.saved), nil
}

// Save replaces the stored dataset.
func (m *Memory) Save(ctx context.Context, ds Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clone(ds)
	m.saved = &cp
	m.saves++
	return nil
}

// Saves counts successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func clone(ds Dataset) Dataset {
	return Dataset{
		Period:              ds.Period,
		Journal:             append([]JournalRow(nil), ds.Journal...),
		OpeningTrialBalance: append([]TrialBalanceRow(nil), ds.OpeningTrialBalance...),
		TrialBalance:        append([]TrialBalanceRow(nil), ds.TrialBalance...),
		Items:               append([]InventoryItemRow(nil), ds.Items...),
		Movements:           append([]MovementRow(nil), ds.Movements...),
		Warnings:            append([]string(nil), ds.Warnings...),
	}
}
