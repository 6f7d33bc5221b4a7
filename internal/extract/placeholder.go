package extract

import (
	"slices"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

// Placeholder is the sample object the outbound prompt shows the model. Models sometimes
// echo it before the real answer, so a candidate carrying these values is not an answer.
var Placeholder = proposal.AnalysisResult{
	TLDR:              "Brief summary of the proposal",
	RiskLevel:         "Medium",
	RiskExplanation:   "Detailed explanation of risks",
	KeyConsiderations: []string{"Point 1", "Point 2", "Point 3"},
}

// IsPlaceholder reports whether res is the prompt's sample object.
func IsPlaceholder(res proposal.AnalysisResult) bool {
	return res.TLDR == Placeholder.TLDR &&
		res.RiskLevel == Placeholder.RiskLevel &&
		res.RiskExplanation == Placeholder.RiskExplanation &&
		slices.Equal(res.KeyConsiderations, Placeholder.KeyConsiderations)
}
