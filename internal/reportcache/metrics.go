package reportcache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsMu          sync.Mutex
	metricsInitialized bool
	metricsErr         error

	hitCounter     *prometheus.CounterVec
	missCounter    *prometheus.CounterVec
	buildHistogram *prometheus.HistogramVec
)

// SetupMetrics registers the cache collectors once; later calls return the
// first result.
func SetupMetrics(reg prometheus.Registerer) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if metricsInitialized {
		return metricsErr
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bukubesar_report_cache_hits_total",
		Help: "Number of report cache hits.",
	}, []string{"report"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bukubesar_report_cache_miss_total",
		Help: "Number of report cache misses.",
	}, []string{"report"})
	builds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bukubesar_report_build_duration_seconds",
		Help:    "Duration required to build a report on a cache miss.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	for _, collector := range []prometheus.Collector{hits, misses, builds} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				metricsErr = err
				metricsInitialized = true
				return metricsErr
			}
			switch existing := already.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				if collector == prometheus.Collector(hits) {
					hits = existing
				} else {
					misses = existing
				}
			case *prometheus.HistogramVec:
				builds = existing
			default:
				metricsErr = fmt.Errorf("reportcache metrics: unexpected collector type %T", existing)
			}
		}
	}
	hitCounter, missCounter, buildHistogram = hits, misses, builds
	metricsInitialized = true
	return metricsErr
}

func recordHit(report string) {
	if hitCounter != nil {
		hitCounter.WithLabelValues(report).Inc()
	}
}

func recordMiss(report string) {
	if missCounter != nil {
		missCounter.WithLabelValues(report).Inc()
	}
}

func observeBuild(report string, d time.Duration) {
	if buildHistogram != nil {
		buildHistogram.WithLabelValues(report).Observe(d.Seconds())
	}
}
