// Package textclean normalizes model output before it reaches an end user.
package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxLength bounds every user-facing message, below Telegram's 4096 limit.
	MaxLength = 4000

	DefaultGreeting = "Hi! How can I help you today?"
)

var (
	citationPattern  = regexp.MustCompile(`【[^】]*】|\[\^?\d+\]`)
	linkPattern      = regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\s]+)\)`)
	headingPattern   = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	emphasisReplacer = strings.NewReplacer("**", "", "__", "", "~~", "", "*", "", "`", "")
	whitespace       = regexp.MustCompile(`\s+`)

	legacyTagPattern = regexp.MustCompile(`(?i)\[(ACTION|SYSTEM_QUERY|SYSTEM|TASK|FOLLOW_UP)\b[^\]]*\]`)
)

// Sanitize strips citations, markdown markers and links, collapses whitespace
// and bounds the length. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	// Passes never grow the text, so this reaches a fixed point.
	for {
		next := sanitizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	s = truncate(s, MaxLength)
	if s == "" {
		return DefaultGreeting
	}
	return s
}

func sanitizeOnce(s string) string {
	s = citationPattern.ReplaceAllString(s, "")
	s = linkPattern.ReplaceAllString(s, "$1 ($2)")
	s = headingPattern.ReplaceAllString(s, "")
	s = emphasisReplacer.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimSpace(string(runes[:max-1]))
	return cut + "…"
}

// StripLegacyTags removes inline [ACTION:...] style tags emitted by older prompt versions.
func StripLegacyTags(s string) string {
	return strings.TrimSpace(legacyTagPattern.ReplaceAllString(s, ""))
}
