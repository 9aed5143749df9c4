package reports

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WarningCode classifies a data-quality warning.
type WarningCode string

const (
	WarningParseFallback              WarningCode = "PARSE_FALLBACK"
	WarningBalancingPlug              WarningCode = "BALANCING_PLUG"
	WarningTrialBalanceOutOfTolerance WarningCode = "TRIAL_BALANCE_OUT_OF_TOLERANCE"
	WarningReportDegraded             WarningCode = "REPORT_DEGRADED"
)

// Warning is surfaced next to a report; it never blocks the report.
type Warning struct {
	Code    WarningCode
	Message string
	Amount  decimal.Decimal
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
