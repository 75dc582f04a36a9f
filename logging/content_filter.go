package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ContentPreviewRunes is how much input text development logs keep.
const ContentPreviewRunes = 48

// contentKeys are field names that carry raw input text.
var contentKeys = []string{"text", "content", "input", "document"}

// IsContentField reports whether a field name carries raw input text.
// Matching is case-insensitive on the whole key or a "_text"-style suffix.
func IsContentField(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range contentKeys {
		if lower == k || strings.HasSuffix(lower, "_"+k) {
			return true
		}
	}
	return false
}

// SummarizeContent replaces input text with its size. In development mode a
// short quoted preview is kept as well.
//
//	SummarizeContent("hello world", false) // "[11 bytes]"
//	SummarizeContent("hello world", true)  // "[11 bytes] \"hello world\""
func SummarizeContent(text string, withPreview bool) string {
	summary := fmt.Sprintf("[%d bytes]", len(text))
	if !withPreview || text == "" {
		return summary
	}
	return fmt.Sprintf("%s %q", summary, TruncateRunes(text, ContentPreviewRunes))
}

// TruncateRunes shortens s to at most n runes, marking the cut with "...".
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
