package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
	"github.com/odyssey-erp/bukubesar/internal/amount"
)

// TotalLabel names the summary row of a trial balance.
const TotalLabel = "TOTAL"

// TrialBalanceRow summarises one account. The TOTAL row has no ending balance.
type TrialBalanceRow struct {
	No            int
	Account       string
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
	EndingBalance decimal.NullDecimal
	IsTotal       bool
}

// BuildTrialBalance lists every ledger account in name order followed by a
// TOTAL row.
func BuildTrialBalance(l posting.Ledger) []TrialBalanceRow {
	accountsInLedger := l.Accounts()
	rows := make([]TrialBalanceRow, 0, len(accountsInLedger)+1)
	var sumDebit, sumCredit decimal.Decimal
	for idx, account := range accountsInLedger {
		debit, credit := l.Totals(account)
		rows = append(rows, TrialBalanceRow{
			No:            idx + 1,
			Account:       account,
			TotalDebit:    debit,
			TotalCredit:   credit,
			EndingBalance: decimal.NewNullDecimal(debit.Sub(credit)),
		})
		sumDebit = sumDebit.Add(debit)
		sumCredit = sumCredit.Add(credit)
	}
	rows = append(rows, TrialBalanceRow{
		Account:     TotalLabel,
		TotalDebit:  sumDebit,
		TotalCredit: sumCredit,
		IsTotal:     true,
	})
	return rows
}

// AccountRows drops the TOTAL row.
func AccountRows(rows []TrialBalanceRow) []TrialBalanceRow {
	out := make([]TrialBalanceRow, 0, len(rows))
	for _, row := range rows {
		if !row.IsTotal {
			out = append(out, row)
		}
	}
	return out
}

// TrialBalanceTotals sums the account rows, ignoring any TOTAL row.
func TrialBalanceTotals(rows []TrialBalanceRow) (debit, credit decimal.Decimal) {
	for _, row := range AccountRows(rows) {
		debit = debit.Add(row.TotalDebit)
		credit = credit.Add(row.TotalCredit)
	}
	return debit, credit
}

// CheckTrialBalance returns a warning when the totals differ beyond tolerance.
func CheckTrialBalance(rows []TrialBalanceRow) *Warning {
	debit, credit := TrialBalanceTotals(rows)
	if amount.WithinTolerance(debit, credit) {
		return nil
	}
	diff := debit.Sub(credit)
	return &Warning{
		Code:    WarningTrialBalanceOutOfTolerance,
		Message: fmt.Sprintf("trial balance differs by %s (debit %s, credit %s)", diff.StringFixed(2), debit.StringFixed(2), credit.StringFixed(2)),
		Amount:  diff,
	}
}

// BuildPostClosingTrialBalance nets every account with a non-zero ending
// balance onto its debit or credit side. It is the balance carried into the
// next period.
func BuildPostClosingTrialBalance(l posting.Ledger) []TrialBalanceRow {
	var rows []TrialBalanceRow
	var sumDebit, sumCredit decimal.Decimal
	for _, account := range l.Accounts() {
		balance := l.Balance(account)
		if balance.IsZero() {
			continue
		}
		row := TrialBalanceRow{No: len(rows) + 1, Account: account, EndingBalance: decimal.NewNullDecimal(balance)}
		if balance.IsPositive() {
			row.TotalDebit = balance
		} else {
			row.TotalCredit = balance.Neg()
		}
		sumDebit = sumDebit.Add(row.TotalDebit)
		sumCredit = sumCredit.Add(row.TotalCredit)
		rows = append(rows, row)
	}
	return append(rows, TrialBalanceRow{
		Account:     TotalLabel,
		TotalDebit:  sumDebit,
		TotalCredit: sumCredit,
		IsTotal:     true,
	})
}
