package proposal

import (
	"errors"
	"strings"
)

// Proposal types offered by the front-end. Values outside this set are accepted as-is.
const (
	TypeGovernance  = "governance"
	TypeTreasury    = "treasury"
	TypeProtocol    = "protocol"
	TypePartnership = "partnership"
)

// DefaultType is used when a request carries no proposal type.
const DefaultType = TypeGovernance

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
)

// AnalysisRequest is the proposal the caller wants summarized.
type AnalysisRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ProposalType string `json:"proposalType"`
}

// Type returns the proposal type, falling back to DefaultType.
func (r AnalysisRequest) Type() string {
	if t := strings.TrimSpace(r.ProposalType); t != "" {
		return t
	}
	return DefaultType
}

// Validate reports the first missing field needed to build either a prompt or a fallback.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

// AnalysisResult is the structured summary handed back to the caller.
// RiskLevel is expected to be Low, Medium or High but is not normalized.
type AnalysisResult struct {
	TLDR              string   `json:"tldr"`
	RiskLevel         string   `json:"riskLevel"`
	RiskExplanation   string   `json:"riskExplanation"`
	KeyConsiderations []string `json:"keyConsiderations"`
}
