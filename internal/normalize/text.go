package normalize

import (
	"regexp"
	"strings"
)

const TitleMaxRunes = 100

var whitespaceRun = regexp.MustCompile(`\s+`)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TitleFrom derives a display title from free text, falling back to the first
// non-empty alternative when the text is blank.
func TitleFrom(text string, fallbacks ...string) string {
	if title := Truncate(strings.TrimSpace(text), TitleMaxRunes); title != "" {
		return title
	}
	for _, f := range fallbacks {
		if f = strings.TrimSpace(f); f != "" {
			return f
		}
	}
	return ""
}

// JoinWords collapses whitespace runs in a keyword into sep ("acme corp" -> "acme+corp").
func JoinWords(keyword, sep string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(keyword), sep)
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
