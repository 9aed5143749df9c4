package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

var start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func m(v int64) decimal.Decimal { return decimal.NewFromInt(v * 1_000_000) }

type fixture struct {
	t     *testing.T
	store *journals.Store
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, store: journals.NewStore()}
}

func (f *fixture) open(account string, debit, credit decimal.Decimal) *fixture {
	if err := f.store.SetOpeningBalance(account, debit, credit); err != nil {
		f.t.Fatalf("opening %s: %v", account, err)
	}
	return f
}

func (f *fixture) post(src journals.Source, debitAcc, creditAcc string, amt decimal.Decimal) *fixture {
	_, err := f.store.Add(journals.TransactionInput{
		Date:   start.AddDate(0, 0, 9),
		Source: src,
		Lines: []journals.LineInput{
			{Account: debitAcc, Debit: amt},
			{Account: creditAcc, Credit: amt},
		},
	})
	if err != nil {
		f.t.Fatalf("post %s/%s: %v", debitAcc, creditAcc, err)
	}
	return f
}

func (f *fixture) ledger() posting.Ledger {
	l, err := posting.Rebuild(posting.Input{
		Opening:     f.store.OpeningBalances(),
		Entries:     f.store.All(),
		PeriodStart: start,
		PeriodLabel: "January 2024",
	})
	if err != nil {
		f.t.Fatalf("rebuild: %v", err)
	}
	return l
}

func TestBuildTrialBalance(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Modal", decimal.Zero, m(100)).
		post(journals.SourceGeneral, "Beban Gaji", "Kas", m(5)).
		ledger()

	rows := BuildTrialBalance(l)
	if len(rows) != 4 {
		t.Fatalf("expected 3 accounts plus total, got %d rows", len(rows))
	}
	if rows[0].Account != "Beban Gaji" || rows[1].Account != "Kas" || rows[2].Account != "Modal" {
		t.Fatalf("unexpected account order: %s, %s, %s", rows[0].Account, rows[1].Account, rows[2].Account)
	}
	kas := rows[1]
	if !kas.TotalDebit.Equal(m(100)) || !kas.TotalCredit.Equal(m(5)) || !kas.EndingBalance.Decimal.Equal(m(95)) {
		t.Fatalf("unexpected kas row: %+v", kas)
	}
	total := rows[3]
	if !total.IsTotal || total.Account != TotalLabel || total.EndingBalance.Valid {
		t.Fatalf("unexpected total row: %+v", total)
	}
	if !total.TotalDebit.Equal(m(105)) || !total.TotalCredit.Equal(m(105)) {
		t.Fatalf("expected totals 105M/105M got %s/%s", total.TotalDebit, total.TotalCredit)
	}
	if w := CheckTrialBalance(rows); w != nil {
		t.Fatalf("unexpected warning: %v", w)
	}
	if len(AccountRows(rows)) != 3 {
		t.Fatalf("expected 3 account rows")
	}
}

func TestCheckTrialBalanceOutOfTolerance(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(10), decimal.Zero).
		open("Modal", decimal.Zero, m(8)).
		ledger()
	w := CheckTrialBalance(BuildTrialBalance(l))
	if w == nil || w.Code != WarningTrialBalanceOutOfTolerance || !w.Amount.Equal(m(2)) {
		t.Fatalf("expected out of tolerance warning of 2M, got %+v", w)
	}
}

func TestBuildIncomeStatementIgnoresClosingEntries(t *testing.T) {
	f := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Modal", decimal.Zero, m(100)).
		post(journals.SourceGeneral, "Kas", "Penjualan", m(70)).
		post(journals.SourceGeneral, "Harga Pokok Penjualan", "Persediaan", m(30)).
		post(journals.SourceAdjusting, "Beban Penyusutan", "Akumulasi Penyusutan", m(5))
	before := BuildIncomeStatement(f.ledger(), accounts.DefaultChart())

	f.post(journals.SourceClosing, "Penjualan", "Ikhtisar Laba Rugi", m(70)).
		post(journals.SourceClosing, "Ikhtisar Laba Rugi", "Harga Pokok Penjualan", m(30)).
		post(journals.SourceClosing, "Ikhtisar Laba Rugi", "Beban Penyusutan", m(5)).
		post(journals.SourceClosing, "Ikhtisar Laba Rugi", "Modal", m(35))
	after := BuildIncomeStatement(f.ledger(), accounts.DefaultChart())

	for _, is := range []IncomeStatement{before, after} {
		if !is.Revenue.Total.Equal(m(70)) {
			t.Fatalf("expected revenue 70M got %s", is.Revenue.Total)
		}
		if !is.Expense.Total.Equal(m(35)) {
			t.Fatalf("expected expense 35M got %s", is.Expense.Total)
		}
		if !is.NetIncome.Equal(m(35)) {
			t.Fatalf("expected net income 35M got %s", is.NetIncome)
		}
		if len(is.Expense.Lines) != 2 {
			t.Fatalf("expected 2 expense lines got %d", len(is.Expense.Lines))
		}
	}
	rows := after.Rows()
	if last := rows[len(rows)-1]; last.Label != "Laba (Rugi) Bersih" || !last.Amount.Equal(m(35)) {
		t.Fatalf("unexpected last row %+v", last)
	}
}

func TestBuildEquityStatement(t *testing.T) {
	opening := []journals.OpeningBalance{
		{Account: "Kas", Debit: m(100)},
		{Account: "Modal", Credit: m(100)},
	}
	es := BuildEquityStatement(opening, m(-5))
	if !es.OpeningEquity.Equal(m(100)) || !es.ClosingEquity.Equal(m(95)) {
		t.Fatalf("unexpected equity statement %+v", es)
	}
	if rows := es.Rows(); len(rows) != 3 || rows[2].Label != "Modal Akhir" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestBuildBalanceSheetInjectsPlug(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Persediaan", m(5), decimal.Zero).
		open("Peralatan", m(75), decimal.Zero).
		open("Utang Usaha", decimal.Zero, m(45)).
		open("Modal", decimal.Zero, m(130)).
		ledger()

	bs := BuildBalanceSheet(l, accounts.DefaultChart())
	if !bs.TotalAssets.Equal(m(180)) {
		t.Fatalf("expected assets 180M got %s", bs.TotalAssets)
	}
	if !bs.Plug.Equal(m(5)) {
		t.Fatalf("expected plug 5M got %s", bs.Plug)
	}
	if !bs.Balanced() || !bs.TotalLiabilitiesAndEquity.Equal(m(180)) {
		t.Fatalf("expected balanced sheet, got %s vs %s", bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	}
	last := bs.Equity.Lines[len(bs.Equity.Lines)-1]
	if last.Label != accounts.PlugLabel || !last.Amount.Equal(m(5)) {
		t.Fatalf("unexpected plug line %+v", last)
	}
	if len(bs.Warnings) != 1 || bs.Warnings[0].Code != WarningBalancingPlug {
		t.Fatalf("expected plug warning got %+v", bs.Warnings)
	}
}

func TestBuildBalanceSheetUpdatesExistingPlugLine(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(50), decimal.Zero).
		open("Modal", decimal.Zero, m(40)).
		open(accounts.PlugLabel, decimal.Zero, m(2)).
		ledger()

	bs := BuildBalanceSheet(l, accounts.DefaultChart())
	count := 0
	for _, line := range bs.Equity.Lines {
		if line.Label == accounts.PlugLabel {
			count++
			if !line.Amount.Equal(m(10)) {
				t.Fatalf("expected plug line 10M got %s", line.Amount)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected a single plug line, got %d", count)
	}
	if !bs.Balanced() {
		t.Fatalf("expected balanced sheet")
	}
}

func TestBuildBalanceSheetContraAssetAndCurrentEarnings(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Peralatan", m(75), decimal.Zero).
		open("Utang Usaha", decimal.Zero, m(45)).
		open("Modal", decimal.Zero, m(130)).
		post(journals.SourceGeneral, "Kas", "Pendapatan Jasa", m(20)).
		post(journals.SourceAdjusting, "Beban Penyusutan", "Akumulasi Penyusutan", m(5)).
		ledger()

	bs := BuildBalanceSheet(l, accounts.DefaultChart())
	if !bs.Plug.IsZero() || len(bs.Warnings) != 0 {
		t.Fatalf("expected no plug, got %s %+v", bs.Plug, bs.Warnings)
	}
	if !bs.NonCurrentAssets.Total.Equal(m(70)) {
		t.Fatalf("expected non-current assets 70M got %s", bs.NonCurrentAssets.Total)
	}
	if !bs.TotalAssets.Equal(m(190)) || !bs.TotalLiabilitiesAndEquity.Equal(m(190)) {
		t.Fatalf("unexpected totals %s / %s", bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	}
	var earnings decimal.Decimal
	for _, line := range bs.Equity.Lines {
		if line.Label == accounts.CurrentEarningsLabel {
			earnings = line.Amount
		}
	}
	if !earnings.Equal(m(15)) {
		t.Fatalf("expected current earnings 15M got %s", earnings)
	}
	rows := bs.Rows()
	if rows[len(rows)-1].Label != "Total Liabilitas dan Ekuitas" {
		t.Fatalf("unexpected final row %+v", rows[len(rows)-1])
	}
}

func TestBuildBalanceSheetAfterClosing(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Modal", decimal.Zero, m(100)).
		post(journals.SourceGeneral, "Kas", "Penjualan", m(10)).
		post(journals.SourceClosing, "Penjualan", "Ikhtisar Laba Rugi", m(10)).
		post(journals.SourceClosing, "Ikhtisar Laba Rugi", "Modal", m(10)).
		ledger()

	bs := BuildBalanceSheet(l, accounts.DefaultChart())
	if len(bs.Equity.Lines) != 1 || !bs.Equity.Lines[0].Amount.Equal(m(110)) {
		t.Fatalf("expected only Modal 110M in equity, got %+v", bs.Equity.Lines)
	}
	if !bs.Balanced() || !bs.Plug.IsZero() {
		t.Fatalf("expected balanced sheet without plug")
	}
}

func TestBuildPostClosingTrialBalance(t *testing.T) {
	l := newFixture(t).
		open("Kas", m(100), decimal.Zero).
		open("Modal", decimal.Zero, m(100)).
		post(journals.SourceGeneral, "Kas", "Penjualan", m(10)).
		post(journals.SourceClosing, "Penjualan", "Ikhtisar Laba Rugi", m(10)).
		post(journals.SourceClosing, "Ikhtisar Laba Rugi", "Modal", m(10)).
		ledger()

	rows := BuildPostClosingTrialBalance(l)
	if len(rows) != 3 {
		t.Fatalf("expected Kas, Modal and TOTAL, got %+v", rows)
	}
	if rows[0].Account != "Kas" || !rows[0].TotalDebit.Equal(m(110)) || !rows[0].TotalCredit.IsZero() {
		t.Fatalf("unexpected kas row %+v", rows[0])
	}
	if rows[1].Account != "Modal" || !rows[1].TotalCredit.Equal(m(110)) || rows[1].No != 2 {
		t.Fatalf("unexpected modal row %+v", rows[1])
	}
	if !rows[2].IsTotal || !rows[2].TotalDebit.Equal(rows[2].TotalCredit) {
		t.Fatalf("unexpected total row %+v", rows[2])
	}
}
