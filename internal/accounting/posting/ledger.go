package posting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
)

// Line is one posting on an account card.
type Line struct {
	Seq            int
	Date           time.Time
	Source         journals.Source
	TransactionID  int64
	Memo           string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
}

// Row is a ledger line tagged with its account, used for flat exports.
type Row struct {
	Account string
	Line
}

// Ledger maps an account name to its chronologically ordered lines.
type Ledger map[string][]Line

// Accounts returns the account names in sorted order.
func (l Ledger) Accounts() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lines returns the postings of account.
func (l Ledger) Lines(account string) []Line {
	return l[account]
}

// Balance returns the ending balance (debit minus credit) of account.
func (l Ledger) Balance(account string) decimal.Decimal {
	lines := l[account]
	if len(lines) == 0 {
		return decimal.Zero
	}
	return lines[len(lines)-1].RunningBalance
}

// Totals sums both sides of account.
func (l Ledger) Totals(account string) (debit, credit decimal.Decimal) {
	for _, line := range l[account] {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// TotalsExcluding sums both sides of account ignoring lines from the given sources.
func (l Ledger) TotalsExcluding(account string, skip ...journals.Source) (debit, credit decimal.Decimal) {
	for _, line := range l[account] {
		if containsSource(skip, line.Source) {
			continue
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Len counts every line in the ledger.
func (l Ledger) Len() int {
	n := 0
	for _, lines := range l {
		n += len(lines)
	}
	return n
}

// Clone returns a copy that shares no slices with l.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	for account, lines := range l {
		out[account] = append([]Line(nil), lines...)
	}
	return out
}

// Flatten lists every line, accounts in sorted order and lines in sequence.
func (l Ledger) Flatten() []Row {
	rows := make([]Row, 0, l.Len())
	for _, account := range l.Accounts() {
		for _, line := range l[account] {
			rows = append(rows, Row{Account: account, Line: line})
		}
	}
	return rows
}

func containsSource(list []journals.Source, src journals.Source) bool {
	for _, s := range list {
		if s == src {
			return true
		}
	}
	return false
}
