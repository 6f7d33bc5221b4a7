package proposal

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// AnalysisID identifier type
type AnalysisID string

// NewAnalysisID returns a fresh random identifier.
func NewAnalysisID() AnalysisID {
	return AnalysisID(uuid.NewString())
}

// Outcome says which path produced the result.
type Outcome string

const (
	OutcomeExtracted Outcome = "extracted"
	OutcomeFallback  Outcome = "fallback"
)

// AuditEntry records that an analysis happened and, for fallbacks, why.
// The proposal text itself is not stored.
type AuditEntry struct {
	ID           AnalysisID `json:"id"`
	ProposalType string     `json:"proposal_type"`
	TitleDigest  string     `json:"title_digest"`
	Outcome      Outcome    `json:"outcome"`
	ReasonCode   string     `json:"reason_code,omitempty"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	RiskLevel    string     `json:"risk_level"`
	DurationMS   int64      `json:"duration_ms"`
	RawURL       string     `json:"raw_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TitleDigest is a short stable fingerprint of a proposal title.
func TitleDigest(title string) string {
	sum := sha256.Sum256([]byte(title))
	return hex.EncodeToString(sum[:8])
}
