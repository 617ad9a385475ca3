package nlp

import (
	"strings"
	"unicode/utf8"
)

const summaryEllipsis = "..."

// DefaultSummaryLength is the summary character limit used when a caller
// does not request one.
const DefaultSummaryLength = 150

// Summarize produces an extractive summary: texts of three or fewer
// sentences are returned unchanged; otherwise the first three sentences are
// joined and hard-truncated to maxLength characters with an ellipsis marker.
// The cut is character-based, not sentence-aware, and may end mid-word.
func Summarize(text string, maxLength int) string {
	sentences := SplitSentences(text)
	if len(sentences) <= 3 {
		return text
	}

	summary := strings.Join(sentences[:3], " ")
	if utf8.RuneCountInString(summary) <= maxLength {
		return summary
	}

	cut := maxLength - len(summaryEllipsis)
	if cut < 0 {
		cut = 0
	}
	runes := []rune(summary)
	return string(runes[:cut]) + summaryEllipsis
}
