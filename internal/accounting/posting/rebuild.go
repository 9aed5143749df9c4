// Package posting assembles the per-account ledger from the journals.
package posting

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
)

// ErrInvalidDate indicates a journal line without a usable date.
var ErrInvalidDate = errors.New("posting: journal line has no date")

// Input is everything the ledger is derived from.
type Input struct {
	Opening     []journals.OpeningBalance
	Entries     []journals.Entry
	PeriodStart time.Time
	PeriodLabel string
}

// OpeningMemo is the description carried by opening balance lines.
func OpeningMemo(label string) string {
	return "Saldo Awal Periode " + label
}

type pending struct {
	account string
	line    Line
}

// Rebuild derives the ledger from scratch. Opening balances are netted and
// posted on the period start date with transaction id 0, then each account is ordered by
// (date, transaction id) and running balances are accumulated from zero.
func Rebuild(in Input) (Ledger, error) {
	start := journals.CivilDate(in.PeriodStart)
	var all []pending
	for _, ob := range in.Opening {
		// one netted line per account
		bal := ob.Debit.Sub(ob.Credit)
		if bal.IsZero() {
			continue
		}
		line := Line{Date: start, Source: journals.SourceOpening, Memo: OpeningMemo(in.PeriodLabel)}
		if bal.IsPositive() {
			line.Debit = bal
		} else {
			line.Credit = bal.Neg()
		}
		all = append(all, pending{account: ob.Account, line: line})
	}
	for _, src := range journals.PostingSources {
		for _, e := range in.Entries {
			if e.Source != src {
				continue
			}
			if e.Debit.IsZero() && e.Credit.IsZero() {
				continue
			}
			if e.Date.IsZero() {
				return nil, fmt.Errorf("%w: transaction %d account %q", ErrInvalidDate, e.TransactionID, e.Account)
			}
			all = append(all, pending{account: e.Account, line: Line{
				Date:          journals.CivilDate(e.Date),
				Source:        e.Source,
				TransactionID: e.TransactionID,
				Memo:          e.Memo,
				Debit:         e.Debit,
				Credit:        e.Credit,
			}})
		}
	}

	ledger := make(Ledger)
	for _, p := range all {
		ledger[p.account] = append(ledger[p.account], p.line)
	}
	for account, lines := range ledger {
		sort.SliceStable(lines, func(i, j int) bool {
			if !lines[i].Date.Equal(lines[j].Date) {
				return lines[i].Date.Before(lines[j].Date)
			}
			return lines[i].TransactionID < lines[j].TransactionID
		})
		running := decimal.Zero
		for i := range lines {
			running = running.Add(lines[i].Debit).Sub(lines[i].Credit)
			lines[i].Seq = i + 1
			lines[i].RunningBalance = running
		}
		ledger[account] = lines
	}
	return ledger, nil
}
