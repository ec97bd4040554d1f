package util

import (
	"regexp"
	"strings"
)

var (
	// ```json / ```go + line break, a bare ```json glued to the payload, or a bare ```
	reFence = regexp.MustCompile("```(?:[\\w+-]*[ \\t]*\\r?\\n|json)?")
	// [1], [2, 7], [3,4,5]
	reCitation = regexp.MustCompile(`\[\d+(?:\s*,\s*\d+)*\]`)
)

// StripMarkup turns raw model output into display text: code fences and
// citation markers are removed and surrounding whitespace is trimmed.
//
// Removal is repeated until nothing matches, so pieces that only line up
// after a removal (e.g. "[[1]2]") are gone too and the function is idempotent.
func StripMarkup(raw string) string {
	s := raw
	for {
		next := reCitation.ReplaceAllString(reFence.ReplaceAllString(s, ""), "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// StripCitations removes bracketed citation markers only; fences are kept.
func StripCitations(s string) string {
	for {
		next := reCitation.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

// ClampRunes cuts s to at most max runes.
func ClampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
