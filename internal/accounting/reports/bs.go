package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
	"github.com/odyssey-erp/bukubesar/internal/amount"
)

// BalanceSheet is the structured response for the statement of financial position.
type BalanceSheet struct {
	CurrentAssets             StatementSection
	NonCurrentAssets          StatementSection
	CurrentLiabilities        StatementSection
	NonCurrentLiabilities     StatementSection
	Equity                    StatementSection
	TotalAssets               decimal.Decimal
	TotalLiabilities          decimal.Decimal
	TotalEquity               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
	// Plug is the amount booked to the balancing line, zero when none was needed.
	Plug     decimal.Decimal
	Warnings []Warning
}

// Clone returns a copy that shares no slices with b.
func (b BalanceSheet) Clone() BalanceSheet {
	b.CurrentAssets = b.CurrentAssets.clone()
	b.NonCurrentAssets = b.NonCurrentAssets.clone()
	b.CurrentLiabilities = b.CurrentLiabilities.clone()
	b.NonCurrentLiabilities = b.NonCurrentLiabilities.clone()
	b.Equity = b.Equity.clone()
	b.Warnings = append([]Warning(nil), b.Warnings...)
	return b
}

// BuildBalanceSheet classifies ending balances into sections. Any remaining
// difference between assets and liabilities plus equity is absorbed by the
// "Penyesuaian Modal" equity line so the totals always agree.
func BuildBalanceSheet(l posting.Ledger, chart *accounts.Chart) BalanceSheet {
	bs := BalanceSheet{
		CurrentAssets:         StatementSection{Label: "Aset Lancar"},
		NonCurrentAssets:      StatementSection{Label: "Aset Tidak Lancar"},
		CurrentLiabilities:    StatementSection{Label: "Liabilitas Jangka Pendek"},
		NonCurrentLiabilities: StatementSection{Label: "Liabilitas Jangka Panjang"},
		Equity:                StatementSection{Label: "Ekuitas"},
	}

	var nominal decimal.Decimal
	for _, account := range l.Accounts() {
		balance := l.Balance(account)
		switch chart.Classify(account) {
		case accounts.CategoryCurrentAsset:
			if balance.IsPositive() {
				bs.CurrentAssets.add(account, balance)
			}
		case accounts.CategoryNonCurrentAsset:
			if balance.IsPositive() {
				bs.NonCurrentAssets.add(account, balance)
			}
		case accounts.CategoryContraAsset:
			if !balance.IsZero() {
				bs.NonCurrentAssets.add(account, balance)
			}
		case accounts.CategoryCurrentLiability:
			if !balance.IsZero() {
				bs.CurrentLiabilities.add(account, balance.Abs())
			}
		case accounts.CategoryNonCurrentLiability:
			if !balance.IsZero() {
				bs.NonCurrentLiabilities.add(account, balance.Abs())
			}
		case accounts.CategoryEquity:
			if !balance.IsZero() {
				bs.Equity.add(account, balance.Abs())
			}
		case accounts.CategoryRevenue, accounts.CategoryExpense:
			nominal = nominal.Add(balance)
		default:
			if accounts.SameAccount(account, accounts.IncomeSummaryAccount) {
				nominal = nominal.Add(balance)
			}
		}
	}
	if earnings := nominal.Neg(); !earnings.IsZero() {
		bs.Equity.add(accounts.CurrentEarningsLabel, earnings)
	}

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.NonCurrentAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.NonCurrentLiabilities.Total)

	diff := bs.TotalAssets.Sub(bs.TotalLiabilities).Sub(bs.Equity.Total)
	if !diff.IsZero() {
		bs.applyPlug(diff)
		if !amount.WithinTolerance(diff, decimal.Zero) {
			bs.Warnings = append(bs.Warnings, Warning{
				Code:    WarningBalancingPlug,
				Message: fmt.Sprintf("balance sheet forced to balance: %s booked to %s", diff.StringFixed(2), accounts.PlugLabel),
				Amount:  diff,
			})
		}
	}

	bs.TotalEquity = bs.Equity.Total
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	return bs
}

func (bs *BalanceSheet) applyPlug(diff decimal.Decimal) {
	bs.Plug = diff
	bs.Equity.Total = bs.Equity.Total.Add(diff)
	for i, line := range bs.Equity.Lines {
		if accounts.SameAccount(line.Label, accounts.PlugLabel) {
			bs.Equity.Lines[i].Amount = line.Amount.Add(diff)
			return
		}
	}
	bs.Equity.Lines = append(bs.Equity.Lines, StatementLine{Label: accounts.PlugLabel, Amount: diff})
}

// Balanced reports whether both sides agree exactly.
func (bs BalanceSheet) Balanced() bool {
	return bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity)
}

// Rows flattens the statement for tabular output.
func (bs BalanceSheet) Rows() []StatementLine {
	var rows []StatementLine
	section := func(s StatementSection) {
		rows = append(rows, s.Lines...)
		rows = append(rows, StatementLine{Label: "Total " + s.Label, Amount: s.Total})
	}
	section(bs.CurrentAssets)
	section(bs.NonCurrentAssets)
	rows = append(rows, StatementLine{Label: "Total Aset", Amount: bs.TotalAssets})
	section(bs.CurrentLiabilities)
	section(bs.NonCurrentLiabilities)
	section(bs.Equity)
	rows = append(rows, StatementLine{Label: "Total Liabilitas dan Ekuitas", Amount: bs.TotalLiabilitiesAndEquity})
	return rows
}
