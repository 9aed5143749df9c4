package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/accounts"
	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
)

// StatementLine is a labelled amount on a financial statement.
type StatementLine struct {
	Label  string
	Amount decimal.Decimal
}

// StatementSection groups lines under a heading.
type StatementSection struct {
	Label string
	Lines []StatementLine
	Total decimal.Decimal
}

func (s *StatementSection) add(label string, amt decimal.Decimal) {
	s.Lines = append(s.Lines, StatementLine{Label: label, Amount: amt})
	s.Total = s.Total.Add(amt)
}

func (s StatementSection) clone() StatementSection {
	s.Lines = append([]StatementLine(nil), s.Lines...)
	return s
}

// IncomeStatement contains the structured output for the report.
type IncomeStatement struct {
	Revenue   StatementSection
	Expense   StatementSection
	NetIncome decimal.Decimal
}

// Clone returns a copy that shares no slices with s.
func (s IncomeStatement) Clone() IncomeStatement {
	s.Revenue = s.Revenue.clone()
	s.Expense = s.Expense.clone()
	return s
}

// BuildIncomeStatement aggregates revenue and expense accounts. Closing
// entries are ignored so the statement reflects the adjusted period result
// whether or not the books have been closed.
func BuildIncomeStatement(l posting.Ledger, chart *accounts.Chart) IncomeStatement {
	revenue := StatementSection{Label: "Pendapatan"}
	expense := StatementSection{Label: "Beban"}

	for _, account := range l.Accounts() {
		debit, credit := l.TotalsExcluding(account, journals.SourceClosing)
		switch chart.Classify(account) {
		case accounts.CategoryRevenue:
			if amt := credit.Sub(debit); !amt.IsZero() {
				revenue.add(account, amt)
			}
		case accounts.CategoryExpense:
			if amt := debit.Sub(credit); !amt.IsZero() {
				expense.add(account, amt)
			}
		}
	}

	return IncomeStatement{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total.Sub(expense.Total),
	}
}

// Rows flattens the statement for tabular output.
func (s IncomeStatement) Rows() []StatementLine {
	var rows []StatementLine
	rows = append(rows, s.Revenue.Lines...)
	rows = append(rows, StatementLine{Label: "Total Pendapatan", Amount: s.Revenue.Total})
	rows = append(rows, s.Expense.Lines...)
	rows = append(rows, StatementLine{Label: "Total Beban", Amount: s.Expense.Total})
	rows = append(rows, StatementLine{Label: "Laba (Rugi) Bersih", Amount: s.NetIncome})
	return rows
}
