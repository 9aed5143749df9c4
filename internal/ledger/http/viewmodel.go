package http

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/periods"
	"github.com/odyssey-erp/bukubesar/internal/accounting/posting"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/inventory"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WarningVM is a data-quality warning.
type WarningVM struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Amount  string `json:"amount,omitempty"`
}

func warningsVM(ws []reports.Warning) []WarningVM {
	out := make([]WarningVM, 0, len(ws))
	for _, w := range ws {
		vm := WarningVM{Code: string(w.Code), Message: w.Message}
		if !w.Amount.IsZero() {
			vm.Amount = money(w.Amount)
		}
		out = append(out, vm)
	}
	return out
}

// EntryVM is one journal line.
type EntryVM struct {
	TransactionID int64  `json:"transaction_id"`
	Date          string `json:"date"`
	Account       string `json:"account"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Source        string `json:"source"`
	Journal       string `json:"journal"`
	Memo          string `json:"memo,omitempty"`
}

func entriesVM(entries []journals.Entry) []EntryVM {
	out := make([]EntryVM, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryVM{
			TransactionID: e.TransactionID,
			Date:          store.FormatDate(e.Date),
			Account:       e.Account,
			Debit:         money(e.Debit),
			Credit:        money(e.Credit),
			Source:        string(e.Source),
			Journal:       e.Source.Label(),
			Memo:          e.Memo,
		})
	}
	return out
}

// LedgerLineVM is one posting on an account card.
type LedgerLineVM struct {
	Date           string `json:"date"`
	Source         string `json:"source"`
	TransactionID  int64  `json:"transaction_id"`
	Memo           string `json:"memo,omitempty"`
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	RunningBalance string `json:"running_balance"`
}

func ledgerLinesVM(lines []posting.Line) []LedgerLineVM {
	out := make([]LedgerLineVM, 0, len(lines))
	for _, l := range lines {
		out = append(out, LedgerLineVM{
			Date:           store.FormatDate(l.Date),
			Source:         string(l.Source),
			TransactionID:  l.TransactionID,
			Memo:           l.Memo,
			Debit:          money(l.Debit),
			Credit:         money(l.Credit),
			RunningBalance: money(l.RunningBalance),
		})
	}
	return out
}

// AccountLedgerVM is the card of one account.
type AccountLedgerVM struct {
	Account string         `json:"account"`
	Balance string         `json:"balance"`
	Lines   []LedgerLineVM `json:"lines"`
}

func ledgerVM(l posting.Ledger) []AccountLedgerVM {
	out := make([]AccountLedgerVM, 0, len(l))
	for _, name := range l.Accounts() {
		out = append(out, AccountLedgerVM{Account: name, Balance: money(l.Balance(name)), Lines: ledgerLinesVM(l.Lines(name))})
	}
	return out
}

// TrialBalanceRowVM is one trial balance line.
type TrialBalanceRowVM struct {
	No            int    `json:"no,omitempty"`
	Account       string `json:"account"`
	TotalDebit    string `json:"total_debit"`
	TotalCredit   string `json:"total_credit"`
	EndingBalance string `json:"ending_balance,omitempty"`
}

// TrialBalanceVM is the trial balance of the current period.
type TrialBalanceVM struct {
	Period   string              `json:"period"`
	Rows     []TrialBalanceRowVM `json:"rows"`
	Warnings []WarningVM         `json:"warnings"`
}

func trialBalanceRowsVM(rows []reports.TrialBalanceRow) []TrialBalanceRowVM {
	out := make([]TrialBalanceRowVM, 0, len(rows))
	for _, r := range rows {
		vm := TrialBalanceRowVM{No: r.No, Account: r.Account, TotalDebit: money(r.TotalDebit), TotalCredit: money(r.TotalCredit)}
		if r.EndingBalance.Valid {
			vm.EndingBalance = money(r.EndingBalance.Decimal)
		}
		out = append(out, vm)
	}
	return out
}

// LineVM is a labelled statement amount.
type LineVM struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// SectionVM is a statement section with its total.
type SectionVM struct {
	Label string   `json:"label"`
	Lines []LineVM `json:"lines"`
	Total string   `json:"total"`
}

func sectionVM(s reports.StatementSection) SectionVM {
	vm := SectionVM{Label: s.Label, Total: money(s.Total), Lines: make([]LineVM, 0, len(s.Lines))}
	for _, l := range s.Lines {
		vm.Lines = append(vm.Lines, LineVM{Label: l.Label, Amount: money(l.Amount)})
	}
	return vm
}

// IncomeStatementVM is the income statement.
type IncomeStatementVM struct {
	Period    string    `json:"period"`
	Revenue   SectionVM `json:"revenue"`
	Expense   SectionVM `json:"expense"`
	NetIncome string    `json:"net_income"`
}

func incomeStatementVM(period string, s reports.IncomeStatement) IncomeStatementVM {
	return IncomeStatementVM{Period: period, Revenue: sectionVM(s.Revenue), Expense: sectionVM(s.Expense), NetIncome: money(s.NetIncome)}
}

// EquityStatementVM is the statement of changes in equity.
type EquityStatementVM struct {
	Period        string   `json:"period"`
	OpeningEquity string   `json:"opening_equity"`
	NetIncome     string   `json:"net_income"`
	ClosingEquity string   `json:"closing_equity"`
	Rows          []LineVM `json:"rows"`
}

func equityStatementVM(period string, s reports.EquityStatement) EquityStatementVM {
	vm := EquityStatementVM{Period: period, OpeningEquity: money(s.OpeningEquity), NetIncome: money(s.NetIncome), ClosingEquity: money(s.ClosingEquity)}
	for _, l := range s.Rows() {
		vm.Rows = append(vm.Rows, LineVM{Label: l.Label, Amount: money(l.Amount)})
	}
	return vm
}

// BalanceSheetVM is the balance sheet.
type BalanceSheetVM struct {
	Period                    string      `json:"period"`
	CurrentAssets             SectionVM   `json:"current_assets"`
	NonCurrentAssets          SectionVM   `json:"non_current_assets"`
	CurrentLiabilities        SectionVM   `json:"current_liabilities"`
	NonCurrentLiabilities     SectionVM   `json:"non_current_liabilities"`
	Equity                    SectionVM   `json:"equity"`
	TotalAssets               string      `json:"total_assets"`
	TotalLiabilities          string      `json:"total_liabilities"`
	TotalEquity               string      `json:"total_equity"`
	TotalLiabilitiesAndEquity string      `json:"total_liabilities_and_equity"`
	Plug                      string      `json:"plug"`
	Warnings                  []WarningVM `json:"warnings"`
}

func balanceSheetVM(period string, bs reports.BalanceSheet) BalanceSheetVM {
	return BalanceSheetVM{
		Period:                    period,
		CurrentAssets:             sectionVM(bs.CurrentAssets),
		NonCurrentAssets:          sectionVM(bs.NonCurrentAssets),
		CurrentLiabilities:        sectionVM(bs.CurrentLiabilities),
		NonCurrentLiabilities:     sectionVM(bs.NonCurrentLiabilities),
		Equity:                    sectionVM(bs.Equity),
		TotalAssets:               money(bs.TotalAssets),
		TotalLiabilities:          money(bs.TotalLiabilities),
		TotalEquity:               money(bs.TotalEquity),
		TotalLiabilitiesAndEquity: money(bs.TotalLiabilitiesAndEquity),
		Plug:                      money(bs.Plug),
		Warnings:                  warningsVM(bs.Warnings),
	}
}

// ItemVM is the valuation of one stock item.
type ItemVM struct {
	Name         string `json:"name"`
	OpeningQty   string `json:"opening_qty"`
	PurchasedQty string `json:"purchased_qty"`
	SoldQty      string `json:"sold_qty"`
	EndingQty    string `json:"ending_qty"`
	AvgUnitCost  string `json:"avg_unit_cost"`
	TotalValue   string `json:"total_value"`
}

func itemVM(i inventory.Item) ItemVM {
	return ItemVM{
		Name:         i.Name,
		OpeningQty:   i.OpeningQty.String(),
		PurchasedQty: i.PurchasedQty.String(),
		SoldQty:      i.SoldQty.String(),
		EndingQty:    i.EndingQty.String(),
		AvgUnitCost:  money(i.AvgUnitCost),
		TotalValue:   money(i.TotalValue),
	}
}

// MovementVM is one stock card line.
type MovementVM struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Kind           string `json:"kind"`
	Item           string `json:"item"`
	Qty            string `json:"qty"`
	UnitCost       string `json:"unit_cost"`
	Total          string `json:"total"`
	SalePrice      string `json:"sale_price,omitempty"`
	ResultingStock string `json:"resulting_stock"`
	Memo           string `json:"memo,omitempty"`
	TransactionID  int64  `json:"transaction_id,omitempty"`
}

func movementVM(m inventory.Movement) MovementVM {
	vm := MovementVM{
		ID:             m.ID.String(),
		Date:           store.FormatDate(m.Date),
		Kind:           string(m.Kind),
		Item:           m.Item,
		Qty:            m.Qty.String(),
		UnitCost:       money(m.UnitCost),
		Total:          money(m.Total),
		ResultingStock: m.ResultingStock.String(),
		Memo:           m.Memo,
		TransactionID:  m.TransactionID,
	}
	if m.Kind == inventory.MovementSale {
		vm.SalePrice = money(m.SalePrice)
	}
	return vm
}

// PeriodVM is the state of a period.
type PeriodVM struct {
	Label               string              `json:"label"`
	StartDate           string              `json:"start_date"`
	EndDate             string              `json:"end_date"`
	Status              string              `json:"status"`
	ClosedAt            string              `json:"closed_at,omitempty"`
	Version             uint64              `json:"version,omitempty"`
	OpeningTrialBalance []TrialBalanceRowVM `json:"opening_trial_balance,omitempty"`
}

func periodVM(p periods.Period, version uint64) PeriodVM {
	vm := PeriodVM{
		Label:               p.Label,
		StartDate:           store.FormatDate(p.StartDate),
		EndDate:             store.FormatDate(p.EndDate),
		Status:              string(p.Status),
		Version:             version,
		OpeningTrialBalance: trialBalanceRowsVM(p.OpeningTrialBalance),
	}
	if p.ClosedAt != nil {
		vm.ClosedAt = p.ClosedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return vm
}
