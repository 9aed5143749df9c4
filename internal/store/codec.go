package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the storage type of a column.
type Kind uint8

const (
	Text Kind = iota
	Integer
	Amount
)

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Table describes how one entity is laid out.
type Table struct {
	Entity  string
	Columns []Column
}

// Header returns the column names in order.
func (t Table) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

var trialBalanceColumns = []Column{
	{"no", Integer},
	{"account", Text},
	{"total_debit", Amount},
	{"total_credit", Amount},
	{"ending_balance", Amount},
}

var tables = []Table{
	{EntityPeriod, []Column{{"label", Text}, {"start_date", Text}, {"end_date", Text}, {"status", Text}}},
	{EntityJournal, []Column{
		{"transaction_id", Integer},
		{"date", Text},
		{"account", Text},
		{"debit", Amount},
		{"credit", Amount},
		{"source", Text},
		{"memo", Text},
	}},
	{EntityOpeningTrialBalance, trialBalanceColumns},
	{EntityTrialBalance, trialBalanceColumns},
	{EntityInventory, []Column{
		{"item", Text},
		{"opening_qty", Amount},
		{"purchased_qty", Amount},
		{"sold_qty", Amount},
		{"ending_qty", Amount},
		{"avg_unit_cost", Amount},
		{"total_value", Amount},
	}},
	{EntityMovements, []Column{
		{"id", Text},
		{"date", Text},
		{"kind", Text},
		{"item", Text},
		{"qty", Amount},
		{"unit_cost", Amount},
		{"total", Amount},
		{"sale_price", Amount},
		{"resulting_stock", Amount},
		{"memo", Text},
		{"transaction_id", Integer},
	}},
}

// Tables lists every persisted entity in save order.
func Tables() []Table {
	return tables
}

// Lookup returns the table of an entity.
func Lookup(entity string) (Table, bool) {
	for _, t := range tables {
		if t.Entity == entity {
			return t, true
		}
	}
	return Table{}, false
}

func some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Encode flattens one entity of the dataset. Values are string, int64 or
// decimal.NullDecimal according to the column kind.
func Encode(ds Dataset, entity string) [][]any {
	var out [][]any
	switch entity {
	case EntityPeriod:
		p := ds.Period
		out = append(out, []any{p.Label, p.StartDate, p.EndDate, p.Status})
	case EntityJournal:
		for _, r := range ds.Journal {
			out = append(out, []any{r.TransactionID, r.Date, r.Account, some(r.Debit), some(r.Credit), r.Source, r.Memo})
		}
	case EntityOpeningTrialBalance, EntityTrialBalance:
		rows := ds.TrialBalance
		if entity == EntityOpeningTrialBalance {
			rows = ds.OpeningTrialBalance
		}
		for _, r := range rows {
			out = append(out, []any{int64(r.No), r.Account, some(r.Debit), some(r.Credit), r.Balance})
		}
	case EntityInventory:
		for _, r := range ds.Items {
			out = append(out, []any{r.Name, some(r.OpeningQty), some(r.PurchasedQty), some(r.SoldQty), some(r.EndingQty), some(r.AvgUnitCost), some(r.TotalValue)})
		}
	case EntityMovements:
		for _, r := range ds.Movements {
			out = append(out, []any{r.ID, r.Date, r.Kind, r.Item, some(r.Qty), some(r.UnitCost), some(r.Total), some(r.SalePrice), some(r.ResultingStock), r.Memo, r.TransactionID})
		}
	}
	return out
}

// Decoder rebuilds a dataset from string records, matching columns by
// header name so hand-edited files with reordered columns still load.
type Decoder struct {
	Amounts AmountReader
	ds      Dataset
}

// Dataset returns what has been decoded so far.
func (d *Decoder) Dataset() Dataset {
	ds := d.ds
	ds.Warnings = append([]string(nil), d.Amounts.Warnings...)
	return ds
}

type record struct {
	entity string
	line   int
	index  map[string]int
	cells  []string
}

func (r record) text(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) where(name string) string {
	return fmt.Sprintf("%s row %d %s", r.entity, r.line, name)
}

func (r record) integer(name string) (int64, error) {
	s := r.text(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("store: %s: invalid integer %q", r.where(name), s)
		}
		n = int64(f)
	}
	return n, nil
}

func (d *Decoder) amount(r record, name string) decimal.Decimal {
	return d.Amounts.Machine(r.where(name), r.text(name))
}

func (d *Decoder) nullable(r record, name string) decimal.NullDecimal {
	if r.text(name) == "" {
		return decimal.NullDecimal{}
	}
	return some(d.amount(r, name))
}

// Decode appends records of one entity. header names the columns of rows.
func (d *Decoder) Decode(entity string, header []string, rows [][]string) error {
	if _, ok := Lookup(entity); !ok {
		return fmt.Errorf("store: unknown entity %q", entity)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for n, cells := range rows {
		if blank(cells) {
			continue
		}
		r := record{entity: entity, line: n + 2, index: index, cells: cells}
		if err := d.decodeRecord(r); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeRecord(r record) error {
	switch r.entity {
	case EntityPeriod:
		d.ds.Period = PeriodRow{
			Label:     r.text("label"),
			StartDate: r.text("start_date"),
			EndDate:   r.text("end_date"),
			Status:    r.text("status"),
		}
	case EntityJournal:
		id, err := r.integer("transaction_id")
		if err != nil {
			return err
		}
		d.ds.Journal = append(d.ds.Journal, JournalRow{
			TransactionID: id,
			Date:          r.text("date"),
			Account:       r.text("account"),
			Debit:         d.amount(r, "debit"),
			Credit:        d.amount(r, "credit"),
			Source:        r.text("source"),
			Memo:          r.text("memo"),
		})
	case EntityOpeningTrialBalance, EntityTrialBalance:
		no, err := r.integer("no")
		if err != nil {
			return err
		}
		row := TrialBalanceRow{
			No:      int(no),
			Account: r.text("account"),
			Debit:   d.amount(r, "total_debit"),
			Credit:  d.amount(r, "total_credit"),
			Balance: d.nullable(r, "ending_balance"),
		}
		if r.entity == EntityOpeningTrialBalance {
			d.ds.OpeningTrialBalance = append(d.ds.OpeningTrialBalance, row)
		} else {
			d.ds.TrialBalance = append(d.ds.TrialBalance, row)
		}
	case EntityInventory:
		d.ds.Items = append(d.ds.Items, InventoryItemRow{
			Name:         r.text("item"),
			OpeningQty:   d.amount(r, "opening_qty"),
			PurchasedQty: d.amount(r, "purchased_qty"),
			SoldQty:      d.amount(r, "sold_qty"),
			EndingQty:    d.amount(r, "ending_qty"),
			AvgUnitCost:  d.amount(r, "avg_unit_cost"),
			TotalValue:   d.amount(r, "total_value"),
		})
	case EntityMovements:
		id, err := r.integer("transaction_id")
		if err != nil {
			return err
		}
		d.ds.Movements = append(d.ds.Movements, MovementRow{
			ID:             r.text("id"),
			Date:           r.text("date"),
			Kind:           r.text("kind"),
			Item:           r.text("item"),
			Qty:            d.amount(r, "qty"),
			UnitCost:       d.amount(r, "unit_cost"),
			Total:          d.amount(r, "total"),
			SalePrice:      d.amount(r, "sale_price"),
			ResultingStock: d.amount(r, "resulting_stock"),
			Memo:           r.text("memo"),
			TransactionID:  id,
		})
	}
	return nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Cell renders an encoded value as a machine string, empty for a null amount.
func Cell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
