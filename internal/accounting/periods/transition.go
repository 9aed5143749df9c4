package periods

import (
	"fmt"

	"github.com/odyssey-erp/bukubesar/internal/accounting/shared"
)

// ErrInvalidTransition indicates status change not allowed.
var ErrInvalidTransition = shared.Precondition("periods: invalid status transition")

// ValidateTransition checks OPEN -> CLOSING -> CLOSED, allowing CLOSING to
// fall back to OPEN when every closing entry is deleted.
func ValidateTransition(current, target PeriodStatus) error {
	if current == target {
		return nil
	}
	switch current {
	case PeriodStatusOpen:
		if target == PeriodStatusClosing {
			return nil
		}
	case PeriodStatusClosing:
		if target == PeriodStatusClosed || target == PeriodStatusOpen {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
}
