package mysql

import (
	"database/sql"
	"strings"
	"unicode/utf8"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Column widths of proposal_analysis_audit, in characters.
const (
	proposalTypeWidth = 64
	providerWidth     = 64
	modelWidth        = 128
	riskLevelWidth    = 64
)

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
