package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/dao-advisor/internal/application"
	"github.com/bryanwahyu/dao-advisor/internal/domain/ai"
	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
	"github.com/bryanwahyu/dao-advisor/internal/extract"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/prompt"
	"github.com/bryanwahyu/dao-advisor/internal/logger"
)

// DefaultTimeout bounds one provider call when Service.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// sinkTimeout bounds best-effort audit and archive writes.
const sinkTimeout = 3 * time.Second

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAuditDisabled  = errors.New("audit log is not configured")
)

// Reason codes for failures that are not extraction errors.
const (
	ReasonQuotaExceeded       = "QUOTA_EXCEEDED"
	ReasonProviderTimeout     = "PROVIDER_TIMEOUT"
	ReasonEmptyResponse       = "EMPTY_RESPONSE"
	ReasonProviderUnavailable = "PROVIDER_UNAVAILABLE"
)

// MetricsRecorder receives one observation per completed analysis.
type MetricsRecorder interface {
	RecordAnalysis(outcome proposal.Outcome, reason, provider string, d time.Duration)
}

// Service turns a proposal into an AnalysisResult. It never surfaces provider or
// extraction failures to the caller: those produce a fallback result instead.
// Audit, Archive and Metrics are optional.
type Service struct {
	Client  ai.Client
	Audit   proposal.AuditRepository
	Archive proposal.RawArchive
	Metrics MetricsRecorder
	Clock   application.Clock
	Timeout time.Duration
	Logger  logger.Logger
}

// Outcome is what Analyze produced. Reason is nil exactly when Fallback is false.
type Outcome struct {
	ID       proposal.AnalysisID
	Analysis proposal.AnalysisResult
	Fallback bool
	Reason   error
	Provider string
	Model    string
	Duration time.Duration
}

// ReasonCode is a stable label for Reason, empty when the provider output was used.
func (o *Outcome) ReasonCode() string {
	return reasonCode(o.Reason)
}

func reasonCode(err error) string {
	if err == nil {
		return ""
	}
	var xerr *extract.Error
	switch {
	case errors.As(err, &xerr):
		return xerr.Kind.Code()
	case errors.Is(err, ai.ErrQuotaExceeded):
		return ReasonQuotaExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonProviderTimeout
	case errors.Is(err, ai.ErrEmptyResponse):
		return ReasonEmptyResponse
	default:
		return ReasonProviderUnavailable
	}
}

// Analyze validates req, asks the provider once and returns either the extracted result
// or the fallback. The only error returned is ErrInvalidRequest.
func (s *Service) Analyze(ctx context.Context, req proposal.AnalysisRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	start := s.now()
	out := &Outcome{
		ID:       proposal.NewAnalysisID(),
		Provider: s.Client.Provider(),
		Model:    s.Client.Model(),
	}

	raw, err := s.generate(ctx, req)
	if err == nil {
		var res proposal.AnalysisResult
		if res, err = extract.Extract(raw); err == nil {
			out.Analysis = res
		}
	}
	if err != nil {
		out.Fallback = true
		out.Reason = err
		out.Analysis = extract.BuildFallback(req)
	}
	out.Duration = s.now().Sub(start)

	log := s.log().With(logger.Fields{
		"analysis_id":   string(out.ID),
		"proposal_type": req.Type(),
		"provider":      out.Provider,
		"model":         out.Model,
		"duration_ms":   out.Duration.Milliseconds(),
	})
	if out.Fallback {
		log.WithError(out.Reason).Warn("provider output unusable, returning fallback", logger.Fields{
			"reason": out.ReasonCode(),
		})
	} else {
		log.Info("proposal analyzed", logger.Fields{"risk_level": out.Analysis.RiskLevel})
	}

	s.record(ctx, req, out, raw, log)
	return out, nil
}

// Recent lists the latest audit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*proposal.AuditEntry, error) {
	if s.Audit == nil {
		return nil, ErrAuditDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Audit.Latest(ctx, limit)
}

type generated struct {
	text string
	err  error
}

// generate makes the single provider call. The select keeps the deadline binding even
// for a client that ignores its context.
func (s *Service) generate(ctx context.Context, req proposal.AnalysisRequest) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan generated, 1)
	go func() {
		text, err := s.Client.Generate(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(req))
		done <- generated{text: text, err: err}
	}()

	select {
	case g := <-done:
		if g.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(g.err, ctxErr) {
				return "", fmt.Errorf("%w: %w: %w", ai.ErrProviderUnavailable, ctxErr, g.err)
			}
			return "", fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, g.err)
		}
		if g.text == "" {
			return "", fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, ai.ErrEmptyResponse)
		}
		return g.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, ctx.Err())
	}
}

func (s *Service) record(ctx context.Context, req proposal.AnalysisRequest, out *Outcome, raw string, log logger.Logger) {
	outcome := proposal.OutcomeExtracted
	if out.Fallback {
		outcome = proposal.OutcomeFallback
	}
	if s.Metrics != nil {
		s.Metrics.RecordAnalysis(outcome, out.ReasonCode(), out.Provider, out.Duration)
	}

	// Sinks outlive a cancelled request but not a hung backend.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	var rawURL string
	if s.Archive != nil && out.Fallback && raw != "" {
		key := fmt.Sprintf("raw/%s/%s.txt", s.now().UTC().Format("2006/01/02"), out.ID)
		url, err := s.Archive.Put(sinkCtx, key, []byte(raw))
		if err != nil {
			log.WithError(err).Error("archive raw provider output failed", nil)
		} else {
			rawURL = url
		}
	}

	if s.Audit == nil {
		return
	}
	entry := &proposal.AuditEntry{
		ID:           out.ID,
		ProposalType: req.Type(),
		TitleDigest:  proposal.TitleDigest(req.Title),
		Outcome:      outcome,
		ReasonCode:   out.ReasonCode(),
		Provider:     out.Provider,
		Model:        out.Model,
		RiskLevel:    out.Analysis.RiskLevel,
		DurationMS:   out.Duration.Milliseconds(),
		RawURL:       rawURL,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.Audit.Save(sinkCtx, entry); err != nil {
		log.WithError(err).Error("save audit entry failed", nil)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNoOpLogger()
	}
	return s.Logger
}
