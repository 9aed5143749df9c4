package periods

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

type stubArchiver struct {
	archived []Period
	rows     [][]reports.TrialBalanceRow
	err      error
}

func (s *stubArchiver) Archive(_ context.Context, p Period, rows []reports.TrialBalanceRow) error {
	if s.err != nil {
		return s.err
	}
	s.archived = append(s.archived, p)
	s.rows = append(s.rows, rows)
	return nil
}

func closingRows() []reports.TrialBalanceRow {
	return []reports.TrialBalanceRow{
		{No: 1, Account: "Kas", TotalDebit: decimal.NewFromInt(95), EndingBalance: decimal.NewNullDecimal(decimal.NewFromInt(95))},
		{No: 2, Account: "Modal", TotalCredit: decimal.NewFromInt(95), EndingBalance: decimal.NewNullDecimal(decimal.NewFromInt(-95))},
		{Account: reports.TotalLabel, TotalDebit: decimal.NewFromInt(95), TotalCredit: decimal.NewFromInt(95), IsTotal: true},
	}
}

func TestNewAndNext(t *testing.T) {
	p := New(time.Date(2024, time.January, 1, 13, 0, 0, 0, time.Local))
	require.Equal(t, "January 2024", p.Label)
	require.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), p.EndDate)
	require.True(t, p.Contains(time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC)))
	require.False(t, p.Contains(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))

	dec := New(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC))
	next := dec.Next()
	require.Equal(t, "January 2025", next.Label)
	require.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), next.StartDate)
	require.Equal(t, PeriodStatusOpen, next.Status)
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(PeriodStatusOpen, PeriodStatusClosing))
	require.NoError(t, ValidateTransition(PeriodStatusClosing, PeriodStatusClosed))
	require.NoError(t, ValidateTransition(PeriodStatusClosing, PeriodStatusOpen))
	require.ErrorIs(t, ValidateTransition(PeriodStatusOpen, PeriodStatusClosed), ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(PeriodStatusClosed, PeriodStatusOpen), shared.ErrPrecondition)
	require.Equal(t, PeriodStatusClosing, StatusFor(true))
}

func TestRollover(t *testing.T) {
	archive := &stubArchiver{}
	ctrl := NewController(archive)
	fixed := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	ctrl.WithNow(func() time.Time { return fixed })

	current := New(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	current.Status = PeriodStatusClosing
	res, err := ctrl.Rollover(context.Background(), RolloverInput{Current: current, ClosingTrialBalance: closingRows(), HasClosingEntries: true})
	require.NoError(t, err)

	require.Equal(t, PeriodStatusClosed, res.Closed.Status)
	require.Equal(t, fixed, *res.Closed.ClosedAt)
	require.Equal(t, "February 2024", res.Next.Label)
	require.Equal(t, closingRows(), res.Next.OpeningTrialBalance)
	require.Len(t, archive.archived, 1)
	require.Equal(t, "January 2024", archive.archived[0].Label)

	opening := CarryForward(res.Next.OpeningTrialBalance)
	require.Len(t, opening, 2)
	require.Equal(t, "Modal", opening[1].Account)
	require.True(t, opening[1].Credit.Equal(decimal.NewFromInt(95)))
}

func TestRolloverPreconditions(t *testing.T) {
	archive := &stubArchiver{}
	ctrl := NewController(archive)
	current := New(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))

	_, err := ctrl.Rollover(context.Background(), RolloverInput{Current: current, ClosingTrialBalance: closingRows()})
	require.ErrorIs(t, err, ErrNoClosingEntries)

	current.Status = PeriodStatusClosing
	total := closingRows()[2:]
	_, err = ctrl.Rollover(context.Background(), RolloverInput{Current: current, ClosingTrialBalance: total, HasClosingEntries: true})
	require.ErrorIs(t, err, ErrEmptyClosingBalance)

	archive.err = errors.New("disk full")
	_, err = ctrl.Rollover(context.Background(), RolloverInput{Current: current, ClosingTrialBalance: closingRows(), HasClosingEntries: true})
	require.ErrorContains(t, err, "disk full")
	require.Empty(t, archive.archived)
}
