package validators

import (
	"strings"
	"unicode"
)

// SanitizeString collapses whitespace runs, drops control characters and
// truncates to maxLen runes. Names and notes arrive in Indonesian with
// multi-byte characters, so truncation never splits a rune.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	space := false
	count := 0
	for _, r := range strings.TrimSpace(input) {
		if maxLen > 0 && count >= maxLen {
			break
		}
		switch {
		case unicode.IsSpace(r):
			if space {
				continue
			}
			space = true
			r = ' '
		case unicode.IsControl(r):
			continue
		default:
			space = false
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}
