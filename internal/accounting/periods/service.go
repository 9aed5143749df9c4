package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/bukubesar/internal/accounting/journals"
	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

var (
	// ErrNoClosingEntries indicates rollover was requested before closing the books.
	ErrNoClosingEntries = shared.Precondition("periods: closing entries required before rollover")
	// ErrEmptyClosingBalance indicates there is nothing to carry forward.
	ErrEmptyClosingBalance = shared.Precondition("periods: closing trial balance is empty")
)

// Archiver stores the closing trial balance of a finished period.
type Archiver interface {
	Archive(ctx context.Context, period Period, closing []reports.TrialBalanceRow) error
}

// Controller ends periods.
type Controller struct {
	archive Archiver
	now     func() time.Time
}

// NewController builds a Controller. A nil archiver skips archiving.
func NewController(archive Archiver) *Controller {
	return &Controller{archive: archive, now: time.Now}
}

// WithNow overrides the clock.
func (c *Controller) WithNow(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// RolloverInput carries the state of the period being ended.
type RolloverInput struct {
	Current             Period
	ClosingTrialBalance []reports.TrialBalanceRow
	HasClosingEntries   bool
}

// RolloverResult is the archived period and its successor.
type RolloverResult struct {
	Closed Period
	Next   Period
}

// Rollover validates and archives the current period and returns the next
// one seeded with the closing trial balance. Nothing is returned when
// archiving fails, so callers can keep their state untouched.
func (c *Controller) Rollover(ctx context.Context, in RolloverInput) (RolloverResult, error) {
	if !in.HasClosingEntries {
		return RolloverResult{}, ErrNoClosingEntries
	}
	if err := ValidateTransition(in.Current.Status, PeriodStatusClosed); err != nil {
		return RolloverResult{}, err
	}
	if len(reports.AccountRows(in.ClosingTrialBalance)) == 0 {
		return RolloverResult{}, ErrEmptyClosingBalance
	}
	closing := append([]reports.TrialBalanceRow(nil), in.ClosingTrialBalance...)

	closed := in.Current
	closedAt := c.now().UTC()
	closed.Status = PeriodStatusClosed
	closed.ClosedAt = &closedAt
	if c.archive != nil {
		if err := c.archive.Archive(ctx, closed, closing); err != nil {
			return RolloverResult{}, fmt.Errorf("periods: archive %s: %w", closed.Label, err)
		}
	}

	next := in.Current.Next()
	next.OpeningTrialBalance = closing
	return RolloverResult{Closed: closed, Next: next}, nil
}

// CarryForward converts trial balance rows into opening balances, skipping
// the TOTAL row.
func CarryForward(rows []reports.TrialBalanceRow) []journals.OpeningBalance {
	accountRows := reports.AccountRows(rows)
	out := make([]journals.OpeningBalance, 0, len(accountRows))
	for _, row := range accountRows {
		if row.TotalDebit.IsZero() && row.TotalCredit.IsZero() {
			continue
		}
		out = append(out, journals.OpeningBalance{Account: row.Account, Debit: row.TotalDebit, Credit: row.TotalCredit})
	}
	return out
}
