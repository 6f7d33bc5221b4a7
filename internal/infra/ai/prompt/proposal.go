package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

// GetSystemPrompt fixes the output contract: one JSON object with four keys.
func GetSystemPrompt() string {
	return `You are an experienced DAO governance analyst. You review proposals for token holders and explain what they change and what could go wrong.

Respond with one valid JSON object only. Do not wrap it in markdown or code fences and do not add commentary.

Requirements:
- "tldr": a concise summary of the proposal in 2-3 sentences.
- "riskLevel": exactly one of High, Medium or Low.
- "riskExplanation": a detailed explanation of the risks behind that level.
- "keyConsiderations": an array of 3-4 short, important points for voters.`
}

// GetUserPrompt embeds the proposal and repeats the expected shape with a literal example.
func GetUserPrompt(req proposal.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString("Analyze this DAO proposal and provide a comprehensive analysis in JSON format:\n\n")
	fmt.Fprintf(&b, "Proposal Title: %s\n", req.Title)
	fmt.Fprintf(&b, "Proposal Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Proposal Type: %s\n\n", req.Type())
	b.WriteString(`Please provide:
1. A concise TL;DR (2-3 sentences)
2. Risk Assessment (High/Medium/Low with detailed explanation)
3. Key considerations for voters (array of 3-4 important points)

Format your response as valid JSON with keys: tldr, riskLevel, riskExplanation, keyConsiderations

Example format:
`)
	b.WriteString(Example)
	return b.String()
}

// Example is the literal sample object shown to the model. Its values must match
// extract.Placeholder so an echoed sample is never served as an analysis.
const Example = `{
  "tldr": "Brief summary of the proposal",
  "riskLevel": "Medium",
  "riskExplanation": "Detailed explanation of risks",
  "keyConsiderations": ["Point 1", "Point 2", "Point 3"]
}`
