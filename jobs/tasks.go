package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity re-derives the saved ledger and reports data-quality warnings.
	TaskLedgerIntegrity = "ledger:integrity"
)

// IntegrityPayload names the period to check. Empty means whatever period
// the store currently holds.
type IntegrityPayload struct {
	Period string `json:"period,omitempty"`
}

// NewIntegrityTask constructs an Asynq task for the integrity check.
func NewIntegrityTask(period string) (*asynq.Task, error) {
	data, err := json.Marshal(IntegrityPayload{Period: strings.TrimSpace(period)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data, asynq.Queue(QueueDefault)), nil
}
