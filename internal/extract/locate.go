package extract

import (
	"encoding/json"
	"strings"
)

// maxCandidates bounds the balanced scan on adversarial input with many unmatched braces.
const maxCandidates = 64

// objectCandidates returns complete, syntactically valid top-level JSON objects in the
// order they appear. String literals are skipped while matching braces, so a "}" inside
// a value does not end the object early.
func objectCandidates(s string) []string {
	var out []string
	start := strings.IndexByte(s, '{')
	for tries := 0; start >= 0 && tries < maxCandidates; tries++ {
		resume := start + 1
		if end, ok := matchBrace(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				out = append(out, candidate)
				resume = end + 1
			}
		}
		next := strings.IndexByte(s[resume:], '{')
		if next < 0 {
			break
		}
		start = resume + next
	}
	return out
}

// matchBrace returns the index of the '}' closing the '{' at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// naiveSpan slices from the first '{' to the last '}'.
func naiveSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
