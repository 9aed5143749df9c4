package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/store/sqlite"
	"github.com/odyssey-erp/bukubesar/internal/store/xlsx"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// seed writes a small period into an xlsx store and points the environment at it.
func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.xlsx")
	t.Setenv("STORE_DRIVER", "xlsx")
	t.Setenv("STORE_PATH", path)
	t.Setenv("ARCHIVE_PATH", filepath.Join(dir, "periods.db"))
	t.Setenv("PERIOD_START", "2024-01-01")
	t.Setenv("REDIS_ADDR", "")

	engine, err := ledger.New(ledger.Config{
		PeriodStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Credential:  ledger.SecretCredential("test-secret"),
	})
	require.NoError(t, err)
	require.NoError(t, engine.SetOpeningBalance("Kas", d(100_000_000), decimal.Zero))
	require.NoError(t, engine.SetOpeningBalance("Modal", decimal.Zero, d(100_000_000)))
	_, err = engine.AddTransaction(journals.TransactionInput{
		Date:   time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		Source: journals.SourceGeneral,
		Lines: []journals.LineInput{
			{Account: "Beban Gaji", Debit: d(5_000_000)},
			{Account: "Kas", Credit: d(5_000_000)},
		},
	})
	require.NoError(t, err)
	require.NoError(t, engine.Save(context.Background(), xlsx.New(path)))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrialBalanceCommand(t *testing.T) {
	seed(t)
	out, err := run(t, "trial-balance")
	require.NoError(t, err)
	require.Contains(t, out, "Neraca Saldo January 2024")
	require.Contains(t, out, "Beban Gaji")
	require.Contains(t, out, "105000000.00")

	out, err = run(t, "tb", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"account": "TOTAL"`)
}

func TestStatementCommands(t *testing.T) {
	seed(t)
	out, err := run(t, "income-statement")
	require.NoError(t, err)
	require.Contains(t, out, "-5000000.00")

	out, err = run(t, "balance-sheet", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"total_assets": "95000000.00"`)
	require.Contains(t, out, `"plug": "0.00"`)

	out, err = run(t, "inventory")
	require.NoError(t, err)
	require.Contains(t, out, "TOTAL")
}

func TestRolloverRequiresClosingEntries(t *testing.T) {
	seed(t)
	_, err := run(t, "rollover")
	require.ErrorContains(t, err, "closing entries required")
}

func TestCheckCommandPassesCleanLedger(t *testing.T) {
	seed(t)
	out, err := run(t, "check")
	require.NoError(t, err)
	require.Contains(t, out, "January 2024: no warnings")
}

func TestExportToSQLite(t *testing.T) {
	dir := seed(t)
	target := filepath.Join(dir, "backup.db")
	out, err := run(t, "export", "--to", "sqlite", "--path", target)
	require.NoError(t, err)
	require.Contains(t, out, "exported January 2024 to sqlite")

	repo, err := sqlite.Open(context.Background(), target)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	ds, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "January 2024", ds.Period.Label)
	require.Len(t, ds.Journal, 4)

	_, err = run(t, "export", "--to", "csv", "--path", target)
	require.Error(t, err)
}
