package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/store"
	_ "github.com/odyssey-erp/bukubesar/testing"
)

type recorder struct {
	task string
	err  error
	runs int
}

func (r *recorder) JobFinished(task string, err error) {
	r.task = task
	r.err = err
	r.runs++
}

var january = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newEngine() (*ledger.Engine, error) {
	return ledger.New(ledger.Config{
		PeriodStart: january,
		Credential:  ledger.SecretCredential("rahasia"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func seededRepo(t *testing.T) *store.Memory {
	t.Helper()
	engine, err := newEngine()
	require.NoError(t, err)
	require.NoError(t, engine.SetOpeningBalance("Kas", decimal.NewFromInt(100_000_000), decimal.Zero))
	require.NoError(t, engine.SetOpeningBalance("Peralatan", decimal.NewFromInt(75_000_000), decimal.Zero))
	require.NoError(t, engine.SetOpeningBalance("Modal", decimal.Zero, decimal.NewFromInt(170_000_000)))
	repo := store.NewMemory()
	require.NoError(t, engine.Save(context.Background(), repo))
	return repo
}

func TestNewIntegrityTask(t *testing.T) {
	task, err := NewIntegrityTask(" January 2024 ")
	require.NoError(t, err)
	require.Equal(t, TaskLedgerIntegrity, task.Type())
	var payload IntegrityPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "January 2024", payload.Period)
}

func TestIntegrityCheckReportsPlug(t *testing.T) {
	job := &IntegrityJob{Repository: seededRepo(t), NewEngine: newEngine, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	report, err := job.Check(context.Background(), "")
	require.NoError(t, err)
	require.True(t, report.Checked)
	require.Equal(t, "January 2024", report.Period)
	require.False(t, report.Balanced)

	var codes []reports.WarningCode
	for _, w := range report.Warnings {
		codes = append(codes, w.Code)
	}
	require.Contains(t, codes, reports.WarningBalancingPlug)
	require.Contains(t, codes, reports.WarningTrialBalanceOutOfTolerance)
}

func TestIntegrityHandleRecordsOutcome(t *testing.T) {
	rec := &recorder{}
	job := &IntegrityJob{Repository: seededRepo(t), NewEngine: newEngine, Metrics: rec}

	task, err := NewIntegrityTask("January 2024")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, TaskLedgerIntegrity, rec.task)
	require.NoError(t, rec.err)

	stale, err := NewIntegrityTask("December 2023")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), stale))
	require.Equal(t, 2, rec.runs)
}

func TestIntegrityHandleEmptyStoreAndBadPayload(t *testing.T) {
	rec := &recorder{}
	job := &IntegrityJob{Repository: store.NewMemory(), NewEngine: newEngine, Metrics: rec}
	report, err := job.Check(context.Background(), "")
	require.NoError(t, err)
	require.False(t, report.Checked)

	err = job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, rec.runs)

	broken := &IntegrityJob{Repository: store.NewMemory(), NewEngine: func() (*ledger.Engine, error) { return nil, errors.New("boom") }, Metrics: rec}
	require.Error(t, broken.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, nil)))
	require.Error(t, rec.err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name   string
		insp   QueueInspector
		status int
		body   string
	}{
		{"no inspector", nil, http.StatusOK, `"queue":"default"`},
		{"queue info", stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, http.StatusOK, `"pending":3`},
		{"redis down", stubInspector{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, "Queue Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.insp, slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.status, rec.Code)
			require.Contains(t, rec.Body.String(), tc.body)
		})
	}
}
