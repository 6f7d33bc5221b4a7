package extract

import (
	"regexp"
	"strings"
)

var (
	// ``` with an optional language tag such as json, javascript or js.
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*")
	trailingFence = regexp.MustCompile("[ \t]*```$")
	jsonLabel     = regexp.MustCompile(`(?i)^json\b[ \t]*:?`)
)

const bom = "\uFEFF"

// Strip removes decorative wrapping around model output: code fences with or without a
// language tag, stray backticks, a leading "json" label and a byte order mark. It repeats
// until nothing changes, so Strip(Strip(s)) == Strip(s).
func Strip(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	s = strings.TrimPrefix(s, bom)
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	s = jsonLabel.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
