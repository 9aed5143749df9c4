// Package xlsx persists the ledger as a workbook with one sheet per entity.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/bukubesar/internal/store"
)

const defaultSheet = "Sheet1"

// Repository reads and writes a single workbook file.
type Repository struct {
	path string
	mu   sync.Mutex
}

// New returns a repository backed by path. The file is created on first save.
func New(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the workbook location.
func (r *Repository) Path() string {
	return r.path
}

// Save rewrites the whole workbook.
func (r *Repository) Save(ctx context.Context, ds store.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range store.Tables() {
		if err := writeSheet(f, table, store.Encode(ds, table.Entity)); err != nil {
			return err
		}
		if i == 0 {
			idx, err := f.GetSheetIndex(table.Entity)
			if err != nil {
				return fmt.Errorf("xlsx: sheet index: %w", err)
			}
			f.SetActiveSheet(idx)
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("xlsx: drop default sheet: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("xlsx: create dir: %w", err)
		}
	}
	tmp := r.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("xlsx: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("xlsx: replace %s: %w", r.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, table store.Table, rows [][]any) error {
	if _, err := f.NewSheet(table.Entity); err != nil {
		return fmt.Errorf("xlsx: new sheet %s: %w", table.Entity, err)
	}
	header := make([]any, len(table.Columns))
	for i, name := range table.Header() {
		header[i] = name
	}
	if err := f.SetSheetRow(table.Entity, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: header %s: %w", table.Entity, err)
	}
	for n, values := range rows {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = cellValue(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(table.Entity, axis, &cells); err != nil {
			return fmt.Errorf("xlsx: row %d of %s: %w", n+2, table.Entity, err)
		}
	}
	return nil
}

// Amounts are written as numeric cells so the workbook stays usable in a
// spreadsheet application.
func cellValue(v any) any {
	if d, ok := v.(decimal.NullDecimal); ok {
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	}
	return v
}

// Load reads every known sheet. Missing sheets load as empty tables.
func (r *Repository) Load(ctx context.Context) (store.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return store.Dataset{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Dataset{}, store.ErrEmpty
		}
		return store.Dataset{}, fmt.Errorf("xlsx: open %s: %w", r.path, err)
	}
	defer f.Close()

	var dec store.Decoder
	for _, table := range store.Tables() {
		idx, err := f.GetSheetIndex(table.Entity)
		if err != nil || idx < 0 {
			continue
		}
		rows, err := f.GetRows(table.Entity, excelize.Options{RawCellValue: true})
		if err != nil {
			return store.Dataset{}, fmt.Errorf("xlsx: read %s: %w", table.Entity, err)
		}
		if len(rows) == 0 {
			continue
		}
		header, body := rows[0], rows[1:]
		if err := normalizeTextAmounts(f, table, header, body, &dec.Amounts); err != nil {
			return store.Dataset{}, err
		}
		if err := dec.Decode(table.Entity, header, body); err != nil {
			return store.Dataset{}, err
		}
	}
	return dec.Dataset(), nil
}

// normalizeTextAmounts rewrites amount cells typed as text (for example
// "Rp 1.500.000" entered by hand) into machine form.
func normalizeTextAmounts(f *excelize.File, table store.Table, header []string, body [][]string, reader *store.AmountReader) error {
	kinds := make(map[string]store.Kind, len(table.Columns))
	for _, c := range table.Columns {
		kinds[c.Name] = c.Kind
	}
	for col, name := range header {
		if kinds[strings.ToLower(strings.TrimSpace(name))] != store.Amount {
			continue
		}
		for n, cells := range body {
			if col >= len(cells) || strings.TrimSpace(cells[col]) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, n+2)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(table.Entity, axis)
			if err != nil {
				return fmt.Errorf("xlsx: cell type %s!%s: %w", table.Entity, axis, err)
			}
			if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
				where := fmt.Sprintf("%s!%s", table.Entity, axis)
				cells[col] = reader.Text(where, cells[col]).String()
			}
		}
	}
	return nil
}
