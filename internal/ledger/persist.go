package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/periods"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

// ErrInvalidDataset rejects a saved dataset that cannot describe a period.
var ErrInvalidDataset = shared.Validation("ledger: invalid saved dataset")

// Export flattens the current state into persistence rows.
func (e *Engine) Export() store.Dataset {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.st
	d := e.derive()

	ds := store.Dataset{
		Period: store.PeriodRow{
			Label:     st.period.Label,
			StartDate: store.FormatDate(st.period.StartDate),
			EndDate:   store.FormatDate(st.period.EndDate),
			Status:    string(st.period.Status),
		},
		OpeningTrialBalance: exportTrialBalance(st.period.OpeningTrialBalance),
		TrialBalance:        exportTrialBalance(d.trial),
	}
	for _, entry := range append(openingEntries(st), st.journals.All()...) {
		ds.Journal = append(ds.Journal, store.JournalRow{
			TransactionID: entry.TransactionID,
			Date:          store.FormatDate(entry.Date),
			Account:       entry.Account,
			Debit:         entry.Debit,
			Credit:        entry.Credit,
			Source:        string(entry.Source),
			Memo:          entry.Memo,
		})
	}
	for _, item := range st.stock.Items() {
		ds.Items = append(ds.Items, store.InventoryItemRow{
			Name:         item.Name,
			OpeningQty:   item.OpeningQty,
			PurchasedQty: item.PurchasedQty,
			SoldQty:      item.SoldQty,
			EndingQty:    item.EndingQty,
			AvgUnitCost:  item.AvgUnitCost,
			TotalValue:   item.TotalValue,
		})
	}
	for _, mv := range st.stock.Movements() {
		ds.Movements = append(ds.Movements, store.MovementRow{
			ID:             mv.ID.String(),
			Date:           store.FormatDate(mv.Date),
			Kind:           string(mv.Kind),
			Item:           mv.Item,
			Qty:            mv.Qty,
			UnitCost:       mv.UnitCost,
			Total:          mv.Total,
			SalePrice:      mv.SalePrice,
			ResultingStock: mv.ResultingStock,
			Memo:           mv.Memo,
			TransactionID:  mv.TransactionID,
		})
	}
	return ds
}

func exportTrialBalance(rows []reports.TrialBalanceRow) []store.TrialBalanceRow {
	out := make([]store.TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.TrialBalanceRow{No: r.No, Account: r.Account, Debit: r.TotalDebit, Credit: r.TotalCredit, Balance: r.EndingBalance})
	}
	return out
}

func importTrialBalance(rows []store.TrialBalanceRow) []reports.TrialBalanceRow {
	out := make([]reports.TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, reports.TrialBalanceRow{
			No:            r.No,
			Account:       r.Account,
			TotalDebit:    r.Debit,
			TotalCredit:   r.Credit,
			EndingBalance: r.Balance,
			IsTotal:       strings.EqualFold(strings.TrimSpace(r.Account), reports.TotalLabel),
		})
	}
	return out
}

// Restore replaces the whole state with a saved dataset. Unreadable dates
// and amounts do not fail the load; they surface as warnings on the
// reports instead.
func (e *Engine) Restore(ds store.Dataset) error {
	var warnings []reports.Warning
	for _, msg := range ds.Warnings {
		warnings = append(warnings, reports.Warning{Code: reports.WarningParseFallback, Message: msg})
	}
	warnDate := func(where, raw string) {
		warnings = append(warnings, reports.Warning{Code: reports.WarningParseFallback, Message: fmt.Sprintf("%s: unreadable date %q", where, raw)})
	}

	start, err := store.ParseDate(ds.Period.StartDate)
	if err != nil || start.IsZero() {
		return fmt.Errorf("%w: period start %q", ErrInvalidDataset, ds.Period.StartDate)
	}
	period := periods.New(start)
	if label := strings.TrimSpace(ds.Period.Label); label != "" {
		period.Label = label
	}
	if end, err := store.ParseDate(ds.Period.EndDate); err == nil && !end.IsZero() {
		period.EndDate = end
	}
	period.OpeningTrialBalance = importTrialBalance(ds.OpeningTrialBalance)

	var entries []journals.Entry
	var opening []journals.OpeningBalance
	openingIndex := make(map[string]int)
	for i, row := range ds.Journal {
		src, ok := journals.ParseSource(row.Source)
		if !ok {
			return fmt.Errorf("%w: journal row %d source %q", ErrInvalidDataset, i+1, row.Source)
		}
		if src == journals.SourceOpening {
			key := strings.TrimSpace(row.Account)
			if idx, seen := openingIndex[key]; seen {
				opening[idx].Debit = opening[idx].Debit.Add(row.Debit)
				opening[idx].Credit = opening[idx].Credit.Add(row.Credit)
				continue
			}
			openingIndex[key] = len(opening)
			opening = append(opening, journals.OpeningBalance{Account: key, Debit: row.Debit, Credit: row.Credit})
			continue
		}
		date, err := store.ParseDate(row.Date)
		if err != nil {
			warnDate(fmt.Sprintf("journal row %d", i+1), row.Date)
		}
		entries = append(entries, journals.Entry{
			TransactionID: row.TransactionID,
			Date:          date,
			Account:       strings.TrimSpace(row.Account),
			Debit:         row.Debit,
			Credit:        row.Credit,
			Source:        src,
			Memo:          row.Memo,
		})
	}

	items := make([]inventory.Item, 0, len(ds.Items))
	for _, row := range ds.Items {
		items = append(items, inventory.Item{
			Name:         row.Name,
			OpeningQty:   row.OpeningQty,
			PurchasedQty: row.PurchasedQty,
			SoldQty:      row.SoldQty,
			EndingQty:    row.EndingQty,
			AvgUnitCost:  row.AvgUnitCost,
			TotalValue:   row.TotalValue,
		})
	}
	movements := make([]inventory.Movement, 0, len(ds.Movements))
	for i, row := range ds.Movements {
		id, err := uuid.Parse(strings.TrimSpace(row.ID))
		if err != nil {
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", period.Label, i)))
		}
		kind := inventory.MovementKind(strings.ToUpper(strings.TrimSpace(row.Kind)))
		if kind != inventory.MovementPurchase && kind != inventory.MovementSale {
			return fmt.Errorf("%w: movement row %d kind %q", ErrInvalidDataset, i+1, row.Kind)
		}
		date, err := store.ParseDate(row.Date)
		if err != nil {
			warnDate(fmt.Sprintf("movement row %d", i+1), row.Date)
		}
		movements = append(movements, inventory.Movement{
			ID:             id,
			Date:           date,
			Kind:           kind,
			Item:           strings.TrimSpace(row.Item),
			Qty:            row.Qty,
			UnitCost:       row.UnitCost,
			Total:          row.Total,
			SalePrice:      row.SalePrice,
			ResultingStock: row.ResultingStock,
			Memo:           row.Memo,
			TransactionID:  row.TransactionID,
		})
	}

	fresh := state{period: period, journals: journals.NewStore(), stock: e.newSubledger(), loadWarnings: warnings}
	if err := fresh.journals.Restore(entries, opening); err != nil {
		return err
	}
	if err := fresh.stock.Restore(items, movements); err != nil {
		return err
	}
	fresh.period.Status = periods.StatusFor(fresh.journals.HasEntries(journals.SourceClosing))

	e.mu.Lock()
	e.st = fresh
	e.instance = uuid.NewString()
	e.version++
	e.memo = nil
	e.mu.Unlock()
	e.logger.Info("ledger restored", slog.String("period", period.Label), slog.Int("journal_lines", len(entries)), slog.Int("warnings", len(warnings)))
	return nil
}

// Save writes the current state to repo.
func (e *Engine) Save(ctx context.Context, repo store.Repository) error {
	if err := repo.Save(ctx, e.Export()); err != nil {
		return fmt.Errorf("ledger: save: %w", err)
	}
	return nil
}

// Load replaces the state with what repo holds. store.ErrEmpty is returned
// unchanged so callers can start a fresh period.
func (e *Engine) Load(ctx context.Context, repo store.Repository) error {
	ds, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	return e.Restore(ds)
}
