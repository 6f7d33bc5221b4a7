package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/dao-advisor/internal/application/analysis"
	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
	"github.com/bryanwahyu/dao-advisor/internal/logger"
	"github.com/bryanwahyu/dao-advisor/internal/middleware"
)

type stubClient struct {
	text  string
	err   error
	delay time.Duration
}

func (s stubClient) Generate(ctx context.Context, _, _ string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func (stubClient) Provider() string { return "Google Gemini" }
func (stubClient) Model() string    { return "gemini-test" }

type memAudit struct {
	mu      sync.Mutex
	entries []*proposal.AuditEntry
}

func (m *memAudit) Save(_ context.Context, e *proposal.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]*proposal.AuditEntry{e}, m.entries...)
	return nil
}

func (m *memAudit) Latest(_ context.Context, limit int) ([]*proposal.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

const fenced = "```json\n{\"tldr\":\"A\",\"riskLevel\":\"High\",\"riskExplanation\":\"B\",\"keyConsiderations\":[\"C\",\"D\"]}\n```"

type envelope struct {
	Success  bool                     `json:"success"`
	Analysis *proposal.AnalysisResult `json:"analysis"`
	Fallback bool                     `json:"fallback"`
	Error    string                   `json:"error"`
}

func newServer(t *testing.T, client stubClient, mutate func(*Options)) *httptest.Server {
	t.Helper()
	opts := Options{
		Service: &analysis.Service{
			Client:  client,
			Timeout: time.Second,
			Logger:  logger.NewNoOpLogger(),
		},
		Logger: logger.NewNoOpLogger(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string, header ...string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/summarize", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

const raiseFees = `{"title":"Raise fees","description":"Raise swap fees to 0.3%","proposalType":"treasury"}`

func TestSummarize_FencedProviderOutput(t *testing.T) {
	srv := newServer(t, stubClient{text: fenced}, nil)

	resp, env := post(t, srv, raiseFees)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Analysis-Id"))

	assert.True(t, env.Success)
	assert.False(t, env.Fallback)
	require.NotNil(t, env.Analysis)
	assert.Equal(t, proposal.AnalysisResult{
		TLDR:              "A",
		RiskLevel:         "High",
		RiskExplanation:   "B",
		KeyConsiderations: []string{"C", "D"},
	}, *env.Analysis)
}

func TestSummarize_TimeoutReturnsFallback(t *testing.T) {
	srv := newServer(t, stubClient{text: fenced, delay: time.Second}, func(o *Options) {
		o.Service.Timeout = 20 * time.Millisecond
	})

	resp, env := post(t, srv, raiseFees)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.True(t, env.Fallback)
	require.NotNil(t, env.Analysis)
	assert.Contains(t, env.Analysis.TLDR, "Raise fees")
	assert.Contains(t, env.Analysis.TLDR, "treasury")
	assert.Equal(t, "Medium", env.Analysis.RiskLevel)
	assert.Len(t, env.Analysis.KeyConsiderations, 4)
}

func TestSummarize_MalformedProviderOutput(t *testing.T) {
	srv := newServer(t, stubClient{text: "blah {not json} blah"}, nil)

	resp, env := post(t, srv, `{"title":"Upgrade oracle","description":"Switch price feed"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.True(t, env.Fallback)
	assert.Contains(t, env.Analysis.TLDR, "governance")
}

func TestSummarize_BadRequests(t *testing.T) {
	srv := newServer(t, stubClient{text: fenced}, nil)

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"missing title", `{"description":"d"}`, http.StatusBadRequest, "title"},
		{"blank title", `{"title":"  ","description":"d"}`, http.StatusBadRequest, "title is required"},
		{"blank description", `{"title":"t","description":""}`, http.StatusBadRequest, "description is required"},
		{"wrong type", `{"title":["t"],"description":"d"}`, http.StatusBadRequest, "invalid request body"},
		{"not json", `title=t`, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := post(t, srv, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
			assert.Nil(t, env.Analysis)
			assert.Contains(t, env.Error, tt.errMsg)
		})
	}
}

func TestSummarize_BodyTooLarge(t *testing.T) {
	h := NewRouter(Options{
		Service:      &analysis.Service{Client: stubClient{text: fenced}},
		MaxBodyBytes: 64,
	})
	rec := httptest.NewRecorder()
	body := `{"title":"t","description":"` + strings.Repeat("x", 128) + `"}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"request body too large"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	srv := newServer(t, stubClient{}, nil)

	resp, err := srv.Client().Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Google Gemini", body["aiProvider"])
	assert.Equal(t, "gemini-test", body["model"])
	_, err = time.Parse(time.RFC3339Nano, body["timestamp"])
	assert.NoError(t, err)
}

func TestLivenessAndReadiness(t *testing.T) {
	srv := newServer(t, stubClient{}, func(o *Options) {
		o.Checkers = map[string]middleware.HealthChecker{
			"redis": middleware.CheckerFunc(func(context.Context) error { return nil }),
		}
	})

	for _, path := range []string{"/healthz/live", "/healthz/ready"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv := newServer(t, stubClient{text: fenced}, func(o *Options) {
		o.APIKeys = map[string]string{"frontend": "secret"}
	})

	resp, env := post(t, srv, raiseFees)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = post(t, srv, raiseFees, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	health, err := srv.Client().Get(srv.URL + "/api/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health stays public")
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := newServer(t, stubClient{text: fenced}, func(o *Options) {
		o.Limiter = middleware.NewMemoryLimiter(ctx, 1, time.Minute)
		o.RateWindow = time.Minute
	})

	resp, _ := post(t, srv, raiseFees)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, env := post(t, srv, raiseFees)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestAnalyses(t *testing.T) {
	t.Run("audit disabled", func(t *testing.T) {
		srv := newServer(t, stubClient{}, nil)
		resp, err := srv.Client().Get(srv.URL + "/api/analyses")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("lists recent entries", func(t *testing.T) {
		audit := &memAudit{}
		srv := newServer(t, stubClient{text: "nope"}, func(o *Options) { o.Service.Audit = audit })

		post(t, srv, raiseFees)
		post(t, srv, raiseFees)

		resp, err := srv.Client().Get(srv.URL + "/api/analyses?limit=1")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			Success  bool                   `json:"success"`
			Analyses []*proposal.AuditEntry `json:"analyses"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		require.Len(t, body.Analyses, 1)
		assert.Equal(t, proposal.OutcomeFallback, body.Analyses[0].Outcome)
		assert.Equal(t, "NO_JSON_OBJECT_FOUND", body.Analyses[0].ReasonCode)
	})
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, stubClient{}, func(o *Options) {
		o.AllowedOrigins = []string{"https://dao.example"}
	})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/summarize", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dao.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://dao.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	m := middleware.NewMetrics(prometheus.NewRegistry())
	srv := newServer(t, stubClient{text: "blah {not json} blah"}, func(o *Options) {
		o.Metrics = m
		o.Service.Metrics = m
	})

	post(t, srv, raiseFees)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `proposal_analyses_total{outcome="fallback",provider="Google Gemini",reason="MALFORMED_JSON"} 1`)
	assert.Contains(t, string(body), `route="/api/summarize"`)
}
