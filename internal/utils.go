package internal

import (
	"strings"
	"unicode/utf8"
)

// MaskSecret replaces all but the last four characters of a secret with '*'.
// Short secrets are masked entirely.
func MaskSecret(secret string) string {
	n := utf8.RuneCountInString(secret)
	if n == 0 {
		return ""
	}
	if n <= 8 {
		return strings.Repeat("*", n)
	}
	runes := []rune(secret)
	return strings.Repeat("*", n-4) + string(runes[n-4:])
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
// Used to keep user text out of log lines in full.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
