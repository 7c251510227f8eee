// Package sanitizer scrubs free-text input before it reaches validation and
// storage: resource names and descriptions, admin notes. It normalizes
// whitespace and strips control characters; it does not HTML-escape (the API
// serves JSON only).
package sanitizer

import (
	"strings"
	"unicode"
)

// Text collapses runs of whitespace to single spaces, trims the result and
// drops non-printable runes.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPrint(r):
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// Line is Text plus a hard length cap, for single-line fields such as
// resource names and notification titles.
func Line(s string, maxLen int) string {
	s = Text(s)
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimSpace(s[:maxLen])
	}
	return s
}
