package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	specialRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-]`)
)

// CleanText collapses runs of whitespace, strips characters outside the
// word/punctuation set, and trims the result.
func CleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = specialRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// TruncateText shortens text to at most maxLength characters, replacing the
// tail with suffix. Texts at or under the limit are returned unchanged.
func TruncateText(text string, maxLength int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	cut := maxLength - utf8.RuneCountInString(suffix)
	if cut < 0 {
		cut = 0
	}
	runes := []rune(text)
	return string(runes[:cut]) + suffix
}

// ConfidenceLevel maps a similarity score to a coarse confidence bucket
// relative to the given threshold.
func ConfidenceLevel(score float64, threshold float64) string {
	switch {
	case score >= threshold+0.2:
		return "high"
	case score >= threshold:
		return "medium"
	default:
		return "low"
	}
}

// SanitizePostgresText strips invalid UTF-8 sequences and null bytes, which
// Postgres text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
