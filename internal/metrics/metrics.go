package metrics

import (
	"net/http"
	"strconv"
	"time"

	"smart-pantry-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	importedRecords prometheus.Counter
	rejectedRecords *prometheus.CounterVec
	importBatchSize prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		importedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "import_records_imported_total",
			Help:      "Records persisted by bulk import.",
		}),
		rejectedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "import_records_rejected_total",
			Help:      "Records rejected by bulk import, by reason kind.",
		}, []string{"kind"}),
		importBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "import_batch_size",
			Help:      "Number of records submitted per bulk import.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.importedRecords,
		m.rejectedRecords,
		m.importBatchSize,
		m.requestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveImport records the outcome of one bulk import.
func (m *Metrics) ObserveImport(outcome *model.ImportOutcome) {
	m.importBatchSize.Observe(float64(outcome.SuccessCount + outcome.FailedCount))
	m.importedRecords.Add(float64(outcome.SuccessCount))
	for _, e := range outcome.Errors {
		m.rejectedRecords.WithLabelValues(string(e.Kind)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware times requests, labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
