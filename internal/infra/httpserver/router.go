package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bryanwahyu/dao-advisor/internal/application/analysis"
	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
	"github.com/bryanwahyu/dao-advisor/internal/logger"
	"github.com/bryanwahyu/dao-advisor/internal/middleware"
)

const defaultMaxBody = 1 << 20

// Options wires the router. Everything except Service is optional.
type Options struct {
	Service *analysis.Service
	Logger  logger.Logger
	Metrics *middleware.Metrics

	// Limiter enables rate limiting on the API routes.
	Limiter    middleware.Limiter
	RateWindow time.Duration

	// APIKeys enables key auth on the API routes when non-empty.
	APIKeys        map[string]string
	AllowedOrigins []string
	MaxBodyBytes   int64

	// Checkers feed /healthz/ready.
	Checkers map[string]middleware.HealthChecker
}

type Router struct {
	svc     *analysis.Service
	log     logger.Logger
	maxBody int64
	now     func() time.Time
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &Router{svc: opts.Service, log: log, maxBody: opts.MaxBodyBytes, now: time.Now}
	if r.maxBody <= 0 {
		r.maxBody = defaultMaxBody
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(log))
	mux.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders: []string{"X-Analysis-Id", "X-Request-Id"},
		MaxAge:         300,
	}))

	mux.Get("/api/health", r.handleHealth)
	mux.Get("/healthz/live", middleware.LivenessHandler)
	mux.Get("/healthz/ready", middleware.ReadinessHandler(opts.Checkers))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Group(func(api chi.Router) {
		if len(opts.APIKeys) > 0 {
			api.Use(middleware.APIKeyAuth(opts.APIKeys))
		}
		if opts.Limiter != nil {
			window := opts.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			var rejected prometheus.Counter
			if opts.Metrics != nil {
				rejected = opts.Metrics.RateLimited
			}
			api.Use(middleware.RateLimit(opts.Limiter, window, log, rejected))
		}
		api.Post("/api/summarize", r.wrap(r.handleSummarize))
		api.Get("/api/analyses", r.wrap(r.handleAnalyses))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// response is the envelope of every /api response except health.
type response struct {
	Success  bool                     `json:"success"`
	Analysis *proposal.AnalysisResult `json:"analysis,omitempty"`
	Fallback bool                     `json:"fallback,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, response{Error: "request body too large"})
		case errors.Is(err, middleware.ErrInvalidBody), errors.Is(err, analysis.ErrInvalidRequest):
			writeJSON(w, http.StatusBadRequest, response{Error: err.Error()})
		case errors.Is(err, analysis.ErrAuditDisabled):
			writeJSON(w, http.StatusNotFound, response{Error: err.Error()})
		default:
			r.log.WithError(err).Error("request failed", logger.Fields{"path": req.URL.Path})
			writeJSON(w, http.StatusInternalServerError, response{Error: "Failed to analyze proposal"})
		}
	}
}

// POST /api/summarize
// Body: {"title": "...", "description": "...", "proposalType": "treasury"}
// Provider or parsing trouble still answers 200 with a fallback analysis.
func (r *Router) handleSummarize(w http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		return err
	}
	if err := middleware.ValidateAnalysisRequest(body); err != nil {
		return err
	}

	var in proposal.AnalysisRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return errors.Join(middleware.ErrInvalidBody, err)
	}
	in.Title = middleware.SanitizeString(in.Title)
	in.Description = middleware.SanitizeString(in.Description)
	in.ProposalType = middleware.SanitizeString(in.ProposalType)

	out, err := r.svc.Analyze(req.Context(), in)
	if err != nil {
		return err
	}

	w.Header().Set("X-Analysis-Id", string(out.ID))
	writeJSON(w, http.StatusOK, response{
		Success:  true,
		Analysis: &out.Analysis,
		Fallback: out.Fallback,
	})
	return nil
}

// GET /api/analyses?limit=20
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Recent(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*proposal.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analyses": list})
	return nil
}

// GET /api/health
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "OK",
		"timestamp":  r.now().UTC().Format(time.RFC3339Nano),
		"aiProvider": r.svc.Client.Provider(),
		"model":      r.svc.Client.Model(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
