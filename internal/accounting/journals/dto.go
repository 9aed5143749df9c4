package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
	"github.com/odyssey-erp/bukubesar/internal/amount"
)

var (
	// ErrUnbalanced indicates debit != credit beyond the rounding tolerance.
	ErrUnbalanced = shared.Validation("journals: transaction lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = shared.Validation("journals: transaction requires at least two lines")
	// ErrDateRequired indicates a missing transaction date.
	ErrDateRequired = shared.Validation("journals: transaction date required")
	// ErrInvalidSource indicates an attempt to post to the opening journal or an unknown one.
	ErrInvalidSource = shared.Validation("journals: source must be general, adjusting or closing")
	// ErrInvalidLine indicates a malformed line.
	ErrInvalidLine = shared.Validation("journals: invalid line")
	// ErrTransactionNotFound indicates the transaction id does not exist.
	ErrTransactionNotFound = shared.NotFound("journals: transaction not found")
)

// UnbalancedError reports the totals of a rejected transaction.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Delta returns debit minus credit.
func (e *UnbalancedError) Delta() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journals: transaction lines must balance: debit %s credit %s delta %s",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Delta().Abs().StringFixed(2))
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// LineInput describes one side of a transaction request.
type LineInput struct {
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TransactionInput groups fields required to record a transaction.
type TransactionInput struct {
	Date   time.Time
	Memo   string
	Source Source
	Lines  []LineInput
}

// Totals sums both sides of the request.
func (in TransactionInput) Totals() (debit, credit decimal.Decimal) {
	for _, line := range in.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Validate ensures the transaction can be appended to a journal.
func (in TransactionInput) Validate() error {
	if in.Date.IsZero() {
		return ErrDateRequired
	}
	if !in.Source.Postable() {
		return ErrInvalidSource
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if strings.TrimSpace(line.Account) == "" {
			return fmt.Errorf("%w: line %d missing account", ErrInvalidLine, idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d negative amount", ErrInvalidLine, idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("%w: line %d cannot be both debit and credit", ErrInvalidLine, idx)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has no amount", ErrInvalidLine, idx)
		}
	}
	debit, credit := in.Totals()
	if !amount.WithinTolerance(debit, credit) {
		return &UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}
