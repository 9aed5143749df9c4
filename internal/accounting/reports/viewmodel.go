package reports

// Statements bundles every report of one period for export and rendering.
type Statements struct {
	PeriodLabel     string
	TrialBalance    []TrialBalanceRow
	IncomeStatement IncomeStatement
	EquityStatement EquityStatement
	BalanceSheet    BalanceSheet
	Warnings        []Warning
}
