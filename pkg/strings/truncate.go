package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the column width used for tool descriptions in
// tables and check output.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest maxLen TruncateDescription honours; anything
// smaller would leave no room for content plus "...".
const MinTruncateLen = 4

// shortIDLen matches the length docker uses for abbreviated container IDs.
const shortIDLen = 12

// TruncateDescription collapses all whitespace runs (including newlines) into
// single spaces and cuts the result to maxLen runes, ending with "..." when
// something was removed.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// ShortID abbreviates a container or run ID for display.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// FirstLine returns s up to its first newline, trimmed.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
