package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/store"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

func TestRoundTripAndReplace(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, store.ErrEmpty)

	ds := store.Dataset{
		Period: store.PeriodRow{Label: "January 2024", StartDate: "2024-01-01", EndDate: "2024-01-31", Status: "OPEN"},
		Journal: []store.JournalRow{
			{TransactionID: 1, Date: "2024-01-05", Account: "Persediaan", Debit: decimal.RequireFromString("190000"), Source: "GENERAL"},
			{TransactionID: 1, Date: "2024-01-05", Account: "Kas", Credit: decimal.RequireFromString("190000"), Source: "GENERAL"},
		},
		TrialBalance: []store.TrialBalanceRow{{Account: "TOTAL", Debit: decimal.NewFromInt(190000), Credit: decimal.NewFromInt(190000)}},
		Items:        []store.InventoryItemRow{{Name: "Barang A", AvgUnitCost: decimal.RequireFromString("9107.1428571428571429")}},
		Movements:    []store.MovementRow{{ID: "m-1", Kind: "PURCHASE", Item: "Barang A", Qty: decimal.NewFromInt(20), TransactionID: 1}},
	}
	require.NoError(t, repo.Save(ctx, ds))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, ds.Period, got.Period)
	require.Len(t, got.Journal, 2)
	require.Equal(t, "Persediaan", got.Journal[0].Account)
	require.True(t, got.Items[0].AvgUnitCost.Equal(decimal.RequireFromString("9107.1428571428571429")))
	require.False(t, got.TrialBalance[0].Balance.Valid)
	require.Equal(t, int64(1), got.Movements[0].TransactionID)

	ds.Journal = ds.Journal[:0]
	ds.Movements = nil
	require.NoError(t, repo.Save(ctx, ds))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Journal)
	require.Empty(t, got.Movements)
}
