package embed

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "..."

// preview shortens s to at most limit runes, appending an ellipsis when cut
func preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:limit-len(ellipsis)]), unicode.IsSpace) + ellipsis
}

// singleLine collapses whitespace so that s fits on one line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// humanize turns a type name like "IssueLabel" into "issue label"
func humanize(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// article returns "an" for words starting with a vowel and "a" otherwise
func article(word string) string {
	if word == "" {
		return "a"
	}
	switch unicode.ToLower([]rune(word)[0]) {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	default:
		return "a"
	}
}
