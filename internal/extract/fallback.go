package extract

import (
	"fmt"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

// FallbackRiskLevel is the fixed risk level of a fallback result.
const FallbackRiskLevel = "Medium"

var fallbackConsiderations = [...]string{
	"Community consensus and stakeholder alignment are crucial",
	"Technical feasibility and impact assessment required",
	"Risk mitigation strategies should be carefully planned",
	"Implementation timeline should be realistic and well-tested",
}

// BuildFallback synthesizes a generic but complete result from the request alone.
// It never looks at provider output and never fails.
func BuildFallback(req proposal.AnalysisRequest) proposal.AnalysisResult {
	kind := req.Type()
	considerations := make([]string, len(fallbackConsiderations))
	copy(considerations, fallbackConsiderations[:])

	return proposal.AnalysisResult{
		TLDR: fmt.Sprintf("This %s proposal \"%s\" requires careful community evaluation and risk assessment.",
			kind, req.Title),
		RiskLevel: FallbackRiskLevel,
		RiskExplanation: fmt.Sprintf("As a %s proposal, this involves changes that could affect protocol operations and requires thorough evaluation.",
			kind),
		KeyConsiderations: considerations,
	}
}
