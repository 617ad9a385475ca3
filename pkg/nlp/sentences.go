package nlp

import "strings"

// SplitSentences splits text into sentences on terminal punctuation.
// Blank lines always close the current sentence; trailing quote and bracket
// characters stay attached to the sentence they close.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}

		for i := 0; i < len(trimmed); i++ {
			current.WriteByte(trimmed[i])

			if trimmed[i] != '.' && trimmed[i] != '!' && trimmed[i] != '?' {
				continue
			}

			j := i + 1
			for j < len(trimmed) && (trimmed[j] == '.' || trimmed[j] == '!' || trimmed[j] == '?') {
				current.WriteByte(trimmed[j])
				j++
			}
			for j < len(trimmed) && (trimmed[j] == '"' || trimmed[j] == '\'' || trimmed[j] == ')' ||
				trimmed[j] == ']' || trimmed[j] == '}') {
				current.WriteByte(trimmed[j])
				j++
			}

			flush()
			i = j - 1
		}
	}

	flush()
	return sentences
}
