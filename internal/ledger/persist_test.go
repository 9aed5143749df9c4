package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/periods"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	src, _ := newEngine(t)
	require.NoError(t, src.SetOpeningBalance("Kas", d(100_000_000), decimal.Zero))
	require.NoError(t, src.SetOpeningBalance("Modal", decimal.Zero, d(100_000_000)))
	_, err := src.SetOpeningStock("Barang A", d(10), d(5_000))
	require.NoError(t, err)
	_, err = src.RecordSale(SaleRequest{SaleInput: inventory.SaleInput{Item: "Barang A", Qty: d(2), SalePrice: d(7_500), Date: day(6)}})
	require.NoError(t, err)
	mustAdd(t, src, tx(journals.SourceAdjusting, day(31), "Beban Penyusutan", "Akumulasi Penyusutan", 250_000))
	require.NoError(t, src.Save(ctx, repo))

	ds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "January 2024", ds.Period.Label)
	require.Equal(t, "OPENING", ds.Journal[0].Source)
	require.Equal(t, int64(0), ds.Journal[0].TransactionID)

	dst, _ := newEngine(t)
	require.NoError(t, dst.Load(ctx, repo))
	require.Equal(t, src.TrialBalance(), dst.TrialBalance())
	require.Equal(t, src.InventorySnapshot(), dst.InventorySnapshot())
	require.Equal(t, src.Movements(""), dst.Movements(""))
	require.Equal(t, src.Period().Label, dst.Period().Label)
	require.Equal(t, src.BalanceSheet().TotalAssets.String(), dst.BalanceSheet().TotalAssets.String())

	id := mustAdd(t, dst, tx(journals.SourceGeneral, day(7), "Beban Sewa", "Kas", 1_000))
	require.Equal(t, int64(3), id)

	res, err := dst.DeleteTransaction(1, secret)
	require.NoError(t, err)
	require.NotNil(t, res.Reversed)
	require.True(t, dst.InventorySnapshot()[0].EndingQty.Equal(d(10)))
}

func TestLoadEmptyRepository(t *testing.T) {
	e, _ := newEngine(t)
	err := e.Load(context.Background(), store.NewMemory())
	require.ErrorIs(t, err, store.ErrEmpty)
	require.Equal(t, uint64(0), e.Version())
}

func TestRestoreDegradesOnUnreadableData(t *testing.T) {
	e, _ := newEngine(t)
	err := e.Restore(store.Dataset{
		Period: store.PeriodRow{StartDate: "2024-03-01", Status: "OPEN"},
		Journal: []store.JournalRow{
			{Date: "2024-03-01", Account: "Kas", Debit: d(500), Source: "OPENING"},
			{Date: "2024-03-01", Account: "Modal", Credit: d(500), Source: "Saldo Awal"},
			{TransactionID: 1, Date: "03/05/2024", Account: "Beban Sewa", Debit: d(100), Source: "GENERAL"},
			{TransactionID: 1, Date: "03/05/2024", Account: "Kas", Credit: d(100), Source: "GENERAL"},
		},
		Warnings: []string{`journal row 4 credit: "seratus" read as 0`},
	})
	require.NoError(t, err)
	require.Equal(t, "March 2024", e.Period().Label)
	require.Equal(t, periods.PeriodStatusOpen, e.Period().Status)
	require.Len(t, e.Journal(journals.SourceOpening), 2)

	codes := map[reports.WarningCode]int{}
	for _, w := range e.Warnings() {
		codes[w.Code]++
	}
	require.Equal(t, 3, codes[reports.WarningParseFallback])
	require.Equal(t, 1, codes[reports.WarningReportDegraded])

	tb := e.TrialBalance()
	require.Len(t, tb, 1)
	require.True(t, tb[0].IsTotal)
}

func TestRestoreRejectsInvalidDataset(t *testing.T) {
	e, _ := newEngine(t)
	require.ErrorIs(t, e.Restore(store.Dataset{}), ErrInvalidDataset)
	err := e.Restore(store.Dataset{
		Period:  store.PeriodRow{StartDate: "2024-03-01"},
		Journal: []store.JournalRow{{TransactionID: 1, Date: "2024-03-02", Account: "Kas", Debit: d(1), Source: "BUKU KAS"}},
	})
	require.ErrorIs(t, err, ErrInvalidDataset)
	require.Equal(t, "January 2024", e.Period().Label)
}
