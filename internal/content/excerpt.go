package content

import (
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the rune limit for generated excerpts.
const ExcerptLength = 200

// Excerpt derives a plain-text summary of markdown content, truncated to
// ExcerptLength runes with a trailing "..." when anything was cut.
func Excerpt(markdown string) string {
	return Truncate(PlainText(markdown), ExcerptLength)
}

// Truncate limits s to n runes, appending "..." when truncated.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + "..."
}
