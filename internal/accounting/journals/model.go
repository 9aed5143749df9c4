package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which journal a line was recorded in.
type Source string

const (
	SourceOpening   Source = "OPENING"
	SourceGeneral   Source = "GENERAL"
	SourceAdjusting Source = "ADJUSTING"
	SourceClosing   Source = "CLOSING"
)

// PostingSources lists the journals that accept transactions, in posting
// priority order.
var PostingSources = []Source{SourceGeneral, SourceAdjusting, SourceClosing}

// ParseSource accepts either the code or the display label.
func ParseSource(s string) (Source, bool) {
	for _, src := range []Source{SourceOpening, SourceGeneral, SourceAdjusting, SourceClosing} {
		if string(src) == s || src.Label() == s {
			return src, true
		}
	}
	return "", false
}

// Priority orders sources when the ledger is assembled.
func (s Source) Priority() int {
	switch s {
	case SourceOpening:
		return 0
	case SourceGeneral:
		return 1
	case SourceAdjusting:
		return 2
	case SourceClosing:
		return 3
	}
	return 4
}

// Label returns the journal name shown on reports.
func (s Source) Label() string {
	switch s {
	case SourceOpening:
		return "Saldo Awal"
	case SourceGeneral:
		return "Jurnal Umum"
	case SourceAdjusting:
		return "Jurnal Penyesuaian"
	case SourceClosing:
		return "Jurnal Penutup"
	}
	return string(s)
}

// Postable reports whether transactions may be added to the source.
func (s Source) Postable() bool {
	return s == SourceGeneral || s == SourceAdjusting || s == SourceClosing
}

// Entry is one side of a transaction. Exactly one of Debit and Credit is
// non-zero.
type Entry struct {
	TransactionID int64
	Date          time.Time
	Account       string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Source        Source
	Memo          string
}

// OpeningBalance is a carried-forward balance for one account.
type OpeningBalance struct {
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// CivilDate drops the clock part of t.
func CivilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
