package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeWarnings(w io.Writer, warnings []reports.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "! %s: %s\n", warn.Code, warn.Message)
	}
}

type trialBalanceLine struct {
	No            int    `json:"no,omitempty"`
	Account       string `json:"account"`
	TotalDebit    string `json:"total_debit"`
	TotalCredit   string `json:"total_credit"`
	EndingBalance string `json:"ending_balance,omitempty"`
}

func newTrialBalanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "trial-balance",
		Aliases: []string{"tb"},
		Short:   "Print the trial balance of the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			rows := svc.Engine.TrialBalance()
			out := cmd.OutOrStdout()
			if opts.json {
				lines := make([]trialBalanceLine, 0, len(rows))
				for _, r := range rows {
					line := trialBalanceLine{No: r.No, Account: r.Account, TotalDebit: money(r.TotalDebit), TotalCredit: money(r.TotalCredit)}
					if r.EndingBalance.Valid {
						line.EndingBalance = money(r.EndingBalance.Decimal)
					}
					lines = append(lines, line)
				}
				return writeJSON(out, lines)
			}
			fmt.Fprintf(out, "Neraca Saldo %s\n", svc.Engine.Period().Label)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "No\tAkun\tDebit\tKredit\tSaldo\t")
			for _, r := range rows {
				no := ""
				if !r.IsTotal {
					no = strconv.Itoa(r.No)
				}
				balance := ""
				if r.EndingBalance.Valid {
					balance = money(r.EndingBalance.Decimal)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", no, r.Account, money(r.TotalDebit), money(r.TotalCredit), balance)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			writeWarnings(out, svc.Engine.Warnings())
			return nil
		},
	}
}

func writeSection(tw io.Writer, s reports.StatementSection) {
	fmt.Fprintf(tw, "%s\t\t\n", s.Label)
	for _, l := range s.Lines {
		fmt.Fprintf(tw, "  %s\t%s\t\n", l.Label, money(l.Amount))
	}
	fmt.Fprintf(tw, "Total %s\t%s\t\n", s.Label, money(s.Total))
}

func newIncomeStatementCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "income-statement",
		Aliases: []string{"pl"},
		Short:   "Print the income statement of the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			st := svc.Engine.IncomeStatement()
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, map[string]any{
					"period":     svc.Engine.Period().Label,
					"revenue":    money(st.Revenue.Total),
					"expense":    money(st.Expense.Total),
					"net_income": money(st.NetIncome),
				})
			}
			fmt.Fprintf(out, "Laporan Laba Rugi %s\n", svc.Engine.Period().Label)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			writeSection(tw, st.Revenue)
			writeSection(tw, st.Expense)
			fmt.Fprintf(tw, "Laba (Rugi) Bersih\t%s\t\n", money(st.NetIncome))
			return tw.Flush()
		},
	}
}

func newBalanceSheetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "balance-sheet",
		Aliases: []string{"bs"},
		Short:   "Print the balance sheet of the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			bs := svc.Engine.BalanceSheet()
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, map[string]any{
					"period":                       svc.Engine.Period().Label,
					"total_assets":                 money(bs.TotalAssets),
					"total_liabilities":            money(bs.TotalLiabilities),
					"total_equity":                 money(bs.TotalEquity),
					"total_liabilities_and_equity": money(bs.TotalLiabilitiesAndEquity),
					"plug":                         money(bs.Plug),
				})
			}
			fmt.Fprintf(out, "Neraca %s\n", svc.Engine.Period().Label)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range []reports.StatementSection{bs.CurrentAssets, bs.NonCurrentAssets, bs.CurrentLiabilities, bs.NonCurrentLiabilities, bs.Equity} {
				writeSection(tw, s)
			}
			fmt.Fprintf(tw, "Total Aset\t%s\t\n", money(bs.TotalAssets))
			fmt.Fprintf(tw, "Total Liabilitas dan Ekuitas\t%s\t\n", money(bs.TotalLiabilitiesAndEquity))
			if err := tw.Flush(); err != nil {
				return err
			}
			writeWarnings(out, bs.Warnings)
			return nil
		},
	}
}

func newInventoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Print the stock valuation",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			items := svc.Engine.InventorySnapshot()
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, items)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Barang\tAwal\tBeli\tJual\tAkhir\tRata-rata\tNilai\t")
			var total decimal.Decimal
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", it.Name, it.OpeningQty, it.PurchasedQty, it.SoldQty, it.EndingQty, money(it.AvgUnitCost), money(it.TotalValue))
				total = total.Add(it.TotalValue)
			}
			fmt.Fprintf(tw, "TOTAL\t\t\t\t\t\t%s\t\n", money(total))
			return tw.Flush()
		},
	}
}
