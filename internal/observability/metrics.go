package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transactions    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	plugs           prometheus.Counter
	rebuild         prometheus.Histogram
	jobs            *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry, metrik HTTP, dan metrik buku besar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bukubesar_http_requests_total",
			Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bukubesar_http_request_duration_seconds",
			Help:    "Durasi permintaan HTTP per route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bukubesar_transactions_total",
			Help: "Jumlah transaksi yang diposting per jurnal.",
		}, []string{"source"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bukubesar_rejections_total",
			Help: "Jumlah mutasi yang ditolak berdasarkan alasan.",
		}, []string{"reason"}),
		plugs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bukubesar_balancing_plugs_total",
			Help: "Jumlah neraca yang diseimbangkan dengan Penyesuaian Modal.",
		}),
		rebuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bukubesar_rebuild_duration_seconds",
			Help:    "Durasi penyusunan ulang buku besar.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bukubesar_jobs_total",
			Help: "Jumlah eksekusi job latar belakang berdasarkan status.",
		}, []string{"task", "status"}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.transactions, m.rejections, m.plugs, m.rebuild, m.jobs)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// TransactionPosted menghitung transaksi yang diterima.
func (m *Metrics) TransactionPosted(source string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(source).Inc()
}

// MutationRejected menghitung mutasi yang ditolak.
func (m *Metrics) MutationRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// BalancingPlugApplied menghitung neraca yang memerlukan plug.
func (m *Metrics) BalancingPlugApplied() {
	if m == nil {
		return
	}
	m.plugs.Inc()
}

// LedgerRebuilt mencatat durasi penyusunan ulang.
func (m *Metrics) LedgerRebuilt(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rebuild.Observe(elapsed.Seconds())
}

// JobFinished mencatat hasil eksekusi job.
func (m *Metrics) JobFinished(task string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.jobs.WithLabelValues(task, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
