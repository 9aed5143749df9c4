package posting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

var periodStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func mustStore(t *testing.T) *journals.Store {
	t.Helper()
	s := journals.NewStore()
	require.NoError(t, s.SetOpeningBalance("Kas", decimal.NewFromInt(100_000_000), decimal.Zero))
	require.NoError(t, s.SetOpeningBalance("Modal", decimal.Zero, decimal.NewFromInt(100_000_000)))
	return s
}

func rebuild(t *testing.T, s *journals.Store) Ledger {
	t.Helper()
	l, err := Rebuild(Input{Opening: s.OpeningBalances(), Entries: s.All(), PeriodStart: periodStart, PeriodLabel: "January 2024"})
	require.NoError(t, err)
	return l
}

func TestRebuildRunningBalance(t *testing.T) {
	s := mustStore(t)
	_, err := s.Add(journals.TransactionInput{
		Date:   time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		Memo:   "Bayar gaji",
		Source: journals.SourceGeneral,
		Lines: []journals.LineInput{
			{Account: "Beban Gaji", Debit: decimal.NewFromInt(5_000_000)},
			{Account: "Kas", Credit: decimal.NewFromInt(5_000_000)},
		},
	})
	require.NoError(t, err)

	l := rebuild(t, s)
	kas := l.Lines("Kas")
	require.Len(t, kas, 2)
	require.Equal(t, journals.SourceOpening, kas[0].Source)
	require.Equal(t, int64(0), kas[0].TransactionID)
	require.Equal(t, "Saldo Awal Periode January 2024", kas[0].Memo)
	require.Equal(t, periodStart, kas[0].Date)
	require.True(t, kas[0].RunningBalance.Equal(decimal.NewFromInt(100_000_000)))
	require.True(t, kas[1].RunningBalance.Equal(decimal.NewFromInt(95_000_000)))
	require.Equal(t, 2, kas[1].Seq)
	require.True(t, l.Balance("Kas").Equal(decimal.NewFromInt(95_000_000)))
	require.True(t, l.Balance("Modal").Equal(decimal.NewFromInt(-100_000_000)))
	require.True(t, l.Balance("Beban Gaji").Equal(decimal.NewFromInt(5_000_000)))
	require.True(t, l.Balance("Unknown").IsZero())
	require.Equal(t, []string{"Beban Gaji", "Kas", "Modal"}, l.Accounts())
}

func TestRebuildOrdersByDateThenTransaction(t *testing.T) {
	s := journals.NewStore()
	add := func(src journals.Source, day int, amt int64) {
		_, err := s.Add(journals.TransactionInput{
			Date:   time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
			Source: src,
			Lines: []journals.LineInput{
				{Account: "Kas", Debit: decimal.NewFromInt(amt)},
				{Account: "Penjualan", Credit: decimal.NewFromInt(amt)},
			},
		})
		require.NoError(t, err)
	}
	add(journals.SourceGeneral, 20, 1)  // id 1
	add(journals.SourceGeneral, 5, 2)   // id 2
	add(journals.SourceAdjusting, 5, 3) // id 3
	add(journals.SourceGeneral, 5, 4)   // id 4

	l := rebuild(t, s)
	var got []int64
	for _, line := range l.Lines("Kas") {
		got = append(got, line.TransactionID)
	}
	require.Equal(t, []int64{2, 3, 4, 1}, got)
	require.True(t, l.Balance("Kas").Equal(decimal.NewFromInt(10)))

	rows := l.Flatten()
	require.Len(t, rows, 8)
	require.Equal(t, "Kas", rows[0].Account)
	require.Equal(t, "Penjualan", rows[7].Account)
	require.Equal(t, 8, l.Len())
}

func TestRebuildTotalsExcludingClosing(t *testing.T) {
	s := journals.NewStore()
	_, err := s.Add(journals.TransactionInput{
		Date: periodStart, Source: journals.SourceGeneral,
		Lines: []journals.LineInput{{Account: "Kas", Debit: decimal.NewFromInt(70)}, {Account: "Penjualan", Credit: decimal.NewFromInt(70)}},
	})
	require.NoError(t, err)
	_, err = s.Add(journals.TransactionInput{
		Date: periodStart.AddDate(0, 0, 30), Source: journals.SourceClosing,
		Lines: []journals.LineInput{{Account: "Penjualan", Debit: decimal.NewFromInt(70)}, {Account: "Ikhtisar Laba Rugi", Credit: decimal.NewFromInt(70)}},
	})
	require.NoError(t, err)

	l := rebuild(t, s)
	debit, credit := l.Totals("Penjualan")
	require.True(t, debit.Equal(decimal.NewFromInt(70)))
	require.True(t, credit.Equal(decimal.NewFromInt(70)))
	debit, credit = l.TotalsExcluding("Penjualan", journals.SourceClosing)
	require.True(t, debit.IsZero())
	require.True(t, credit.Equal(decimal.NewFromInt(70)))
}

func TestRebuildRejectsMissingDate(t *testing.T) {
	entries := []journals.Entry{{TransactionID: 1, Account: "Kas", Debit: decimal.NewFromInt(1), Source: journals.SourceGeneral}}
	_, err := Rebuild(Input{Entries: entries, PeriodStart: periodStart})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestRebuildEmpty(t *testing.T) {
	l, err := Rebuild(Input{PeriodStart: periodStart})
	require.NoError(t, err)
	require.Empty(t, l.Accounts())
	require.Empty(t, l.Flatten())
}

func TestRebuildNetsTwoSidedOpening(t *testing.T) {
	s := journals.NewStore()
	require.NoError(t, s.SetOpeningBalance("Kas", decimal.NewFromInt(100), decimal.NewFromInt(30)))
	require.NoError(t, s.SetOpeningBalance("Modal", decimal.Zero, decimal.NewFromInt(70)))
	require.NoError(t, s.SetOpeningBalance("Utang Usaha", decimal.NewFromInt(10), decimal.NewFromInt(10)))

	l := rebuild(t, s)
	kas := l.Lines("Kas")
	require.Len(t, kas, 1)
	require.True(t, kas[0].Debit.Equal(decimal.NewFromInt(70)))
	require.True(t, kas[0].Credit.IsZero())
	require.Empty(t, l.Lines("Utang Usaha"))

	var debit, credit decimal.Decimal
	for _, account := range l.Accounts() {
		d, c := l.Totals(account)
		debit, credit = debit.Add(d), credit.Add(c)
	}
	require.True(t, debit.Equal(decimal.NewFromInt(70)), "debit %s", debit)
	require.True(t, credit.Equal(decimal.NewFromInt(70)), "credit %s", credit)
}

func TestRebuildIsDeterministic(t *testing.T) {
	s := mustStore(t)
	for day := 12; day >= 10; day-- {
		_, err := s.Add(journals.TransactionInput{
			Date:   time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
			Source: journals.SourceGeneral,
			Lines:  []journals.LineInput{{Account: "Beban Listrik", Debit: decimal.NewFromInt(int64(day))}, {Account: "Kas", Credit: decimal.NewFromInt(int64(day))}},
		})
		require.NoError(t, err)
	}
	in := Input{Opening: s.OpeningBalances(), Entries: s.All(), PeriodStart: periodStart, PeriodLabel: "January 2024"}
	first, err := Rebuild(in)
	require.NoError(t, err)
	second, err := Rebuild(in)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, first.Flatten(), second.Flatten())
}

func TestLedgerCloneIsIndependent(t *testing.T) {
	l := rebuild(t, mustStore(t))
	cp := l.Clone()
	cp["Kas"][0].RunningBalance = decimal.NewFromInt(5)
	delete(cp, "Modal")

	require.True(t, l.Balance("Kas").Equal(decimal.NewFromInt(100_000_000)))
	require.Len(t, l.Lines("Modal"), 1)
	require.Nil(t, Ledger(nil).Clone())
}
