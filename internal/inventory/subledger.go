package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subledger values stock with the moving average method and keeps the stock
// card of the current period.
type Subledger struct {
	items     map[string]*Item
	movements []Movement
	newID     func() uuid.UUID
}

// NewSubledger returns an empty subledger.
func NewSubledger() *Subledger {
	return &Subledger{items: make(map[string]*Item), newID: uuid.New}
}

// WithIDGenerator overrides the movement id source.
func (s *Subledger) WithIDGenerator(gen func() uuid.UUID) {
	if gen != nil {
		s.newID = gen
	}
}

// RecordPurchase adds stock at unit price and recomputes the moving average:
// avg = (ending*avg + qty*price) / (ending + qty).
func (s *Subledger) RecordPurchase(in PurchaseInput) (Movement, error) {
	name := strings.TrimSpace(in.Item)
	if name == "" {
		return Movement{}, ErrItemRequired
	}
	if !in.Qty.IsPositive() {
		return Movement{}, ErrInvalidQuantity
	}
	if !in.UnitPrice.IsPositive() {
		return Movement{}, ErrInvalidUnitPrice
	}
	item, ok := s.items[name]
	if !ok {
		item = &Item{Name: name}
		s.items[name] = item
	}
	total := in.Qty.Mul(in.UnitPrice)
	newEnding := item.EndingQty.Add(in.Qty)
	item.AvgUnitCost = item.EndingQty.Mul(item.AvgUnitCost).Add(total).Div(newEnding)
	item.PurchasedQty = item.PurchasedQty.Add(in.Qty)
	item.EndingQty = newEnding
	item.TotalValue = item.EndingQty.Mul(item.AvgUnitCost)

	mv := Movement{
		ID:             s.newID(),
		Date:           civilDate(in.Date),
		Kind:           MovementPurchase,
		Item:           name,
		Qty:            in.Qty,
		UnitCost:       in.UnitPrice,
		Total:          total,
		ResultingStock: item.EndingQty,
		Memo:           strings.TrimSpace(in.Memo),
	}
	s.movements = append(s.movements, mv)
	return mv, nil
}

// RecordSale removes stock at moving average cost. The average is unchanged.
func (s *Subledger) RecordSale(in SaleInput) (Sale, error) {
	name := strings.TrimSpace(in.Item)
	if name == "" {
		return Sale{}, ErrItemRequired
	}
	if !in.Qty.IsPositive() {
		return Sale{}, ErrInvalidQuantity
	}
	if in.SalePrice.IsNegative() {
		return Sale{}, ErrInvalidSalePrice
	}
	item, ok := s.items[name]
	if !ok {
		return Sale{}, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	if in.Qty.GreaterThan(item.EndingQty) {
		return Sale{}, fmt.Errorf("%w: %s has %s, requested %s", ErrInsufficientStock, name, item.EndingQty, in.Qty)
	}
	cogs := in.Qty.Mul(item.AvgUnitCost)
	item.SoldQty = item.SoldQty.Add(in.Qty)
	item.EndingQty = item.EndingQty.Sub(in.Qty)
	item.TotalValue = item.EndingQty.Mul(item.AvgUnitCost)

	mv := Movement{
		ID:             s.newID(),
		Date:           civilDate(in.Date),
		Kind:           MovementSale,
		Item:           name,
		Qty:            in.Qty.Neg(),
		UnitCost:       item.AvgUnitCost,
		Total:          cogs.Neg(),
		SalePrice:      in.SalePrice,
		ResultingStock: item.EndingQty,
		Memo:           strings.TrimSpace(in.Memo),
	}
	s.movements = append(s.movements, mv)
	return Sale{Item: *item, Movement: mv, COGS: cogs}, nil
}

// SetOpeningStock sets the carried-forward quantity and cost of an item that
// has no movements yet this period.
func (s *Subledger) SetOpeningStock(name string, qty, unitCost decimal.Decimal) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrItemRequired
	}
	if qty.IsNegative() || unitCost.IsNegative() {
		return Item{}, ErrInvalidOpeningStock
	}
	item, ok := s.items[name]
	if !ok {
		item = &Item{Name: name}
		s.items[name] = item
	}
	if !item.PurchasedQty.IsZero() || !item.SoldQty.IsZero() {
		return Item{}, fmt.Errorf("%w: %s", ErrItemHasMovements, name)
	}
	item.OpeningQty = qty
	item.EndingQty = qty
	item.AvgUnitCost = unitCost
	item.TotalValue = qty.Mul(unitCost)
	return *item, nil
}

// ReversePurchase undoes a purchase movement. The average cost is left as is,
// so the result approximates the state before the purchase when other
// movements happened in between.
func (s *Subledger) ReversePurchase(id uuid.UUID) (Item, error) {
	idx, mv, err := s.find(id, MovementPurchase)
	if err != nil {
		return Item{}, err
	}
	item, ok := s.items[mv.Item]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, mv.Item)
	}
	if item.EndingQty.LessThan(mv.Qty) {
		return Item{}, fmt.Errorf("%w: %s has %s, reversal needs %s", ErrNegativeStock, item.Name, item.EndingQty, mv.Qty)
	}
	item.PurchasedQty = item.PurchasedQty.Sub(mv.Qty)
	item.EndingQty = item.EndingQty.Sub(mv.Qty)
	item.TotalValue = item.EndingQty.Mul(item.AvgUnitCost)
	s.movements = append(s.movements[:idx], s.movements[idx+1:]...)
	return *item, nil
}

// ReverseSale undoes a sale movement, returning the quantity to stock at the
// current average cost.
func (s *Subledger) ReverseSale(id uuid.UUID) (Item, error) {
	idx, mv, err := s.find(id, MovementSale)
	if err != nil {
		return Item{}, err
	}
	item, ok := s.items[mv.Item]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, mv.Item)
	}
	qty := mv.Qty.Neg()
	item.SoldQty = item.SoldQty.Sub(qty)
	item.EndingQty = item.EndingQty.Add(qty)
	item.TotalValue = item.EndingQty.Mul(item.AvgUnitCost)
	s.movements = append(s.movements[:idx], s.movements[idx+1:]...)
	return *item, nil
}

func (s *Subledger) find(id uuid.UUID, kind MovementKind) (int, Movement, error) {
	for i, mv := range s.movements {
		if mv.ID == id && mv.Kind == kind {
			return i, mv, nil
		}
	}
	return -1, Movement{}, fmt.Errorf("%w: %s", ErrMovementNotFound, id)
}

// LinkTransaction records the journal transaction posted for a movement.
func (s *Subledger) LinkTransaction(id uuid.UUID, txID int64) error {
	for i := range s.movements {
		if s.movements[i].ID == id {
			s.movements[i].TransactionID = txID
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMovementNotFound, id)
}

// MovementByTransaction finds the movement posted as txID, whatever its
// kind.
func (s *Subledger) MovementByTransaction(txID int64) (Movement, bool) {
	if txID <= 0 {
		return Movement{}, false
	}
	for _, mv := range s.movements {
		if mv.TransactionID == txID {
			return mv, true
		}
	}
	return Movement{}, false
}

// Renumber rewrites linked transaction ids after the journals were
// compacted. mapping holds every surviving id; a link to any other id is
// cleared.
func (s *Subledger) Renumber(mapping map[int64]int64) {
	for i := range s.movements {
		old := s.movements[i].TransactionID
		if old <= 0 {
			continue
		}
		s.movements[i].TransactionID = mapping[old]
	}
}

// Item returns a copy of the named item.
func (s *Subledger) Item(name string) (Item, bool) {
	item, ok := s.items[strings.TrimSpace(name)]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Items returns every item sorted by name.
func (s *Subledger) Items() []Item {
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Movements returns the stock card of the period in recording order.
func (s *Subledger) Movements() []Movement {
	return append([]Movement(nil), s.movements...)
}

// StockCard returns the movements of a single item.
func (s *Subledger) StockCard(name string) []Movement {
	name = strings.TrimSpace(name)
	var out []Movement
	for _, mv := range s.movements {
		if mv.Item == name {
			out = append(out, mv)
		}
	}
	return out
}

// TotalValue sums the valuation of every item.
func (s *Subledger) TotalValue() decimal.Decimal {
	var total decimal.Decimal
	for _, item := range s.items {
		total = total.Add(item.TotalValue)
	}
	return total
}

// RollForward starts a new period: ending quantities become opening
// quantities, period counters reset and the stock card is cleared.
func (s *Subledger) RollForward() {
	for _, item := range s.items {
		item.OpeningQty = item.EndingQty
		item.PurchasedQty = decimal.Zero
		item.SoldQty = decimal.Zero
		item.TotalValue = item.EndingQty.Mul(item.AvgUnitCost)
	}
	s.movements = nil
}

// Clone returns a deep copy of the subledger.
func (s *Subledger) Clone() *Subledger {
	c := &Subledger{items: make(map[string]*Item, len(s.items)), newID: s.newID}
	for name, item := range s.items {
		cp := *item
		c.items[name] = &cp
	}
	c.movements = append([]Movement(nil), s.movements...)
	return c
}

// Restore replaces the subledger content with persisted items and movements.
func (s *Subledger) Restore(items []Item, movements []Movement) error {
	fresh := make(map[string]*Item, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return ErrItemRequired
		}
		if item.EndingQty.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeStock, name)
		}
		cp := item
		cp.Name = name
		fresh[name] = &cp
	}
	for _, mv := range movements {
		if _, ok := fresh[mv.Item]; !ok {
			return fmt.Errorf("%w: movement %s references %s", ErrItemNotFound, mv.ID, mv.Item)
		}
	}
	s.items = fresh
	s.movements = append([]Movement(nil), movements...)
	return nil
}

func civilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
