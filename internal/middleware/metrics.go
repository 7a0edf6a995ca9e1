package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

// Metrics holds the Prometheus collectors for the API and the scan pipeline.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestsFlight  prometheus.Gauge
	requestDuration *prometheus.HistogramVec

	scansTotal   *prometheus.CounterVec
	scanDuration *prometheus.HistogramVec

	parseSegments  *prometheus.CounterVec
	parseSkipped   *prometheus.CounterVec
	parseDropped   *prometheus.CounterVec
	parseRecovered *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestsFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Scan runs by kind, mode and outcome.",
		}, []string{"kind", "mode", "outcome"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan latency including the completion call.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind", "mode"}),
		parseSegments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "parse",
			Name:      "segments_total",
			Help:      "Segments seen by the record parsers.",
		}, []string{"kind"}),
		parseSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "parse",
			Name:      "segments_skipped_total",
			Help:      "Segments skipped because they carry no record header.",
		}, []string{"kind"}),
		parseDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "parse",
			Name:      "records_dropped_total",
			Help:      "Records dropped for an empty PATTERN.",
		}, []string{"kind"}),
		parseRecovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "parse",
			Name:      "recoveries_total",
			Help:      "Parser runs that recovered from an internal fault.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal, m.requestsFlight, m.requestDuration,
		m.scansTotal, m.scanDuration,
		m.parseSegments, m.parseSkipped, m.parseDropped, m.parseRecovered,
	)
	return m
}

// RecordScan counts one finished scan.
func (m *Metrics) RecordScan(kind, mode, outcome string, d time.Duration) {
	m.scansTotal.WithLabelValues(kind, mode, outcome).Inc()
	m.scanDuration.WithLabelValues(kind, mode).Observe(d.Seconds())
}

// RecordParse adds parser warning counts for kind.
func (m *Metrics) RecordParse(kind string, s findings.ParseStats) {
	m.parseSegments.WithLabelValues(kind).Add(float64(s.Segments))
	m.parseSkipped.WithLabelValues(kind).Add(float64(s.Skipped))
	m.parseDropped.WithLabelValues(kind).Add(float64(s.Dropped))
	if s.Recovered {
		m.parseRecovered.WithLabelValues(kind).Inc()
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsFlight.Inc()
		defer m.requestsFlight.Dec()

		start := time.Now()
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// routePattern keeps label cardinality bounded: chi's pattern, not the raw path.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
