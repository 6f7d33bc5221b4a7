package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

// Metrics holds the Prometheus collectors for HTTP traffic and analyses.
type Metrics struct {
	reg prometheus.Gatherer

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInProgress prometheus.Gauge
	RateLimited        prometheus.Counter
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
}

// NewMetrics registers all collectors on reg. Pass a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "Number of HTTP requests being served",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		AnalysesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proposal_analyses_total",
				Help: "Total number of proposal analyses by outcome and fallback reason",
			},
			[]string{"outcome", "reason", "provider"},
		),
		AnalysisDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proposal_analysis_duration_seconds",
				Help:    "Duration of proposal analyses including the provider call",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45},
			},
			[]string{"outcome"},
		),
	}
}

// RecordAnalysis counts one finished analysis.
func (m *Metrics) RecordAnalysis(outcome proposal.Outcome, reason, provider string, d time.Duration) {
	if reason == "" {
		reason = "none"
	}
	m.AnalysesTotal.WithLabelValues(string(outcome), reason, provider).Inc()
	m.AnalysisDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// Middleware tracks request counts, latency and in-flight requests per chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInProgress.Inc()
		defer m.RequestsInProgress.Dec()

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// routePattern keeps label cardinality bounded by using the matched chi pattern.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
