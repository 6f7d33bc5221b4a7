// Package extract turns free-form model output into a validated AnalysisResult.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
)

// Required fields, in the order they are checked.
const (
	FieldTLDR              = "tldr"
	FieldRiskLevel         = "riskLevel"
	FieldRiskExplanation   = "riskExplanation"
	FieldKeyConsiderations = "keyConsiderations"
)

// Extract strips decorative wrapping from raw, locates the embedded JSON object, parses it
// and checks the required fields. The returned error is always an *Error.
//
// Candidate objects are found with a balanced-brace scan and the first one that validates
// wins. An echo of the prompt's Placeholder is skipped; when it is the only object in the
// text the result is KindNoJSONObject. When the scan finds nothing usable the
// first-'{' to last-'}' slice is tried instead.
func Extract(raw string) (proposal.AnalysisResult, error) {
	cleaned := Strip(raw)

	var (
		firstErr       error
		sawPlaceholder bool
	)
	for _, candidate := range objectCandidates(cleaned) {
		res, err := decode(candidate)
		if err == nil {
			if IsPlaceholder(res) {
				sawPlaceholder = true
				continue
			}
			return res, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return proposal.AnalysisResult{}, firstErr
	}
	if sawPlaceholder {
		return proposal.AnalysisResult{}, &Error{Kind: KindNoJSONObject}
	}

	span, ok := naiveSpan(cleaned)
	if !ok {
		return proposal.AnalysisResult{}, &Error{Kind: KindNoJSONObject}
	}
	res, err := decode(span)
	if err == nil && IsPlaceholder(res) {
		return proposal.AnalysisResult{}, &Error{Kind: KindNoJSONObject}
	}
	return res, err
}

func decode(fragment string) (proposal.AnalysisResult, error) {
	if !json.Valid([]byte(fragment)) {
		var probe any
		err := json.Unmarshal([]byte(fragment), &probe)
		return proposal.AnalysisResult{}, malformed(fragment, err)
	}

	dec := json.NewDecoder(strings.NewReader(fragment))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return proposal.AnalysisResult{}, malformed(fragment, err)
	}
	return validate(obj)
}

// validate checks the required fields in order. Scalar values are returned unchanged apart
// from coercion to string. keyConsiderations is the one field that is filtered: blank and
// non-scalar elements are dropped, so ["C", ""] yields ["C"], and an array left empty counts
// as missing.
func validate(obj map[string]any) (proposal.AnalysisResult, error) {
	var res proposal.AnalysisResult
	var ok bool

	if res.TLDR, ok = scalarString(obj[FieldTLDR]); !ok {
		return proposal.AnalysisResult{}, MissingRequiredField(FieldTLDR)
	}
	if res.RiskLevel, ok = scalarString(obj[FieldRiskLevel]); !ok {
		return proposal.AnalysisResult{}, MissingRequiredField(FieldRiskLevel)
	}
	if res.RiskExplanation, ok = scalarString(obj[FieldRiskExplanation]); !ok {
		return proposal.AnalysisResult{}, MissingRequiredField(FieldRiskExplanation)
	}

	items, _ := obj[FieldKeyConsiderations].([]any)
	for _, item := range items {
		if s, ok := scalarString(item); ok {
			res.KeyConsiderations = append(res.KeyConsiderations, s)
		}
	}
	if len(res.KeyConsiderations) == 0 {
		return proposal.AnalysisResult{}, MissingRequiredField(FieldKeyConsiderations)
	}
	return res, nil
}

// scalarString coerces strings, numbers and booleans. Null, objects, arrays and blank
// strings count as missing.
func scalarString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
