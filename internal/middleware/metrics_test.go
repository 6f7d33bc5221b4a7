package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Get("/metrics", m.Handler().ServeHTTP)

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInProgress))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/items/{id}",status="418"} 2`)
}

func TestRecordAnalysis(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAnalysis(proposal.OutcomeExtracted, "", "Google Gemini", 2*time.Second)
	m.RecordAnalysis(proposal.OutcomeFallback, "MALFORMED_JSON", "Google Gemini", time.Second)
	m.RecordAnalysis(proposal.OutcomeFallback, "MALFORMED_JSON", "Google Gemini", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("extracted", "none", "Google Gemini")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("fallback", "MALFORMED_JSON", "Google Gemini")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AnalysisDuration))
}
