// Package textnorm holds the text comparison helpers shared by providers and
// the resolution pipeline.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize maps text to its compatibility decomposition (NFKD), lowercased
// and trimmed. Two strings compare equal after Normalize when they only differ
// by composition, ligatures or case.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKD.String(text)))
}

func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Normalize(text)
	}
	return out
}

// SafeNormalize treats a missing value as the empty string.
func SafeNormalize(text *string) string {
	if text == nil {
		return ""
	}
	return Normalize(*text)
}

// Equal compares two strings after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// CollapseSpace joins all whitespace runs into single spaces.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts text to at most limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}

// RuneLen counts characters rather than bytes.
func RuneLen(text string) int {
	return len([]rune(text))
}
