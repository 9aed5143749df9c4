package periods

import (
	"time"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	// PeriodStatusOpen accepts every kind of entry.
	PeriodStatusOpen PeriodStatus = "OPEN"
	// PeriodStatusClosing has closing entries; only closing entries are accepted.
	PeriodStatusClosing PeriodStatus = "CLOSING"
	// PeriodStatusClosed has been rolled over and archived.
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// LabelLayout formats period labels such as "January 2024".
const LabelLayout = "January 2006"

// Period represents a monthly accounting window.
type Period struct {
	Label     string
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	ClosedAt  *time.Time
	// OpeningTrialBalance is the post-closing trial balance carried in from
	// the previous period, TOTAL row included.
	OpeningTrialBalance []reports.TrialBalanceRow
}

// New opens a period starting on start and ending the day before the same
// day of the next month.
func New(start time.Time) Period {
	y, m, d := start.Date()
	begin := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Period{
		Label:     begin.Format(LabelLayout),
		StartDate: begin,
		EndDate:   begin.AddDate(0, 1, -1),
		Status:    PeriodStatusOpen,
	}
}

// Next returns the period that starts on the first day of the following
// calendar month.
func (p Period) Next() Period {
	y, m, _ := p.StartDate.Date()
	return New(time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC))
}

// Contains reports whether t falls inside the period window.
func (p Period) Contains(t time.Time) bool {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// StatusFor derives the status of a period that has not been rolled over.
func StatusFor(hasClosingEntries bool) PeriodStatus {
	if hasClosingEntries {
		return PeriodStatusClosing
	}
	return PeriodStatusOpen
}
