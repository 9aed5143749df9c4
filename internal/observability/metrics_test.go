package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	_ "github.com/odyssey-erp/bukubesar/testing"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.JobFinished("ledger:integrity", nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "bukubesar_jobs_total") {
		t.Fatalf("expected body to contain bukubesar_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "bukubesar_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "bukubesar_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestLedgerObserverCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.TransactionPosted("GENERAL")
	metrics.TransactionPosted("GENERAL")
	metrics.TransactionPosted("CLOSING")
	metrics.MutationRejected("validation")
	metrics.BalancingPlugApplied()
	metrics.LedgerRebuilt(3 * time.Millisecond)
	metrics.JobFinished("ledger:integrity", errors.New("boom"))

	if got := testutil.ToFloat64(metrics.transactions.WithLabelValues("GENERAL")); got != 2 {
		t.Fatalf("expected 2 general transactions, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.rejections.WithLabelValues("validation")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.plugs); got != 1 {
		t.Fatalf("expected 1 plug, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.jobs.WithLabelValues("ledger:integrity", "failed")); got != 1 {
		t.Fatalf("expected 1 failed job, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.rebuild); got != 1 {
		t.Fatalf("expected rebuild histogram, got %d series", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.TransactionPosted("GENERAL")
	metrics.MutationRejected("validation")
	metrics.BalancingPlugApplied()
	metrics.LedgerRebuilt(time.Millisecond)
	metrics.JobFinished("x", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
