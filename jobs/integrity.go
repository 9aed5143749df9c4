package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

// JobRecorder receives the outcome of every job run.
type JobRecorder interface {
	JobFinished(task string, err error)
}

// IntegrityReport summarises one integrity run.
type IntegrityReport struct {
	Period   string
	Checked  bool
	Balanced bool
	Warnings []reports.Warning
	Elapsed  time.Duration
}

// IntegrityJob loads the saved ledger into a fresh engine and re-derives
// every report.
type IntegrityJob struct {
	Repository store.Repository
	NewEngine  func() (*ledger.Engine, error)
	Logger     *slog.Logger
	Metrics    JobRecorder
}

// Handle executes TaskLedgerIntegrity.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Repository == nil || j.NewEngine == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload IntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("ledger integrity: payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.JobFinished(TaskLedgerIntegrity, err)
		}
	}()
	_, err = j.Check(ctx, payload.Period)
	return err
}

// Check runs the integrity check synchronously.
func (j *IntegrityJob) Check(ctx context.Context, period string) (IntegrityReport, error) {
	logger := j.logger().With(slog.String("job", TaskLedgerIntegrity))
	started := time.Now()
	engine, err := j.NewEngine()
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("ledger integrity: engine: %w", err)
	}
	if err := engine.Load(ctx, j.Repository); err != nil {
		if errors.Is(err, store.ErrEmpty) {
			logger.Info("store is empty, nothing to check")
			return IntegrityReport{Period: period}, nil
		}
		return IntegrityReport{}, fmt.Errorf("ledger integrity: load: %w", err)
	}

	current := engine.Period().Label
	if period != "" && period != current {
		logger.Info("period already rolled over, skipping", slog.String("requested", period), slog.String("current", current))
		return IntegrityReport{Period: period}, nil
	}

	statements := engine.Statements()
	report := IntegrityReport{
		Period:   current,
		Checked:  true,
		Balanced: statements.BalanceSheet.Plug.IsZero(),
		Warnings: statements.Warnings,
		Elapsed:  time.Since(started),
	}
	for _, w := range report.Warnings {
		level := slog.LevelWarn
		if w.Code == reports.WarningReportDegraded {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "ledger integrity warning",
			slog.String("period", current),
			slog.String("code", string(w.Code)),
			slog.String("message", w.Message),
			slog.String("amount", w.Amount.StringFixed(2)),
		)
	}
	logger.Info("ledger integrity check finished",
		slog.String("period", current),
		slog.Int("warnings", len(report.Warnings)),
		slog.Bool("balanced", report.Balanced),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (j *IntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
