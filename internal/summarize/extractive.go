package summarize

import (
	"regexp"
	"strings"
)

const (
	// leadSentences is how many opening sentences the extractive summary keeps.
	leadSentences = 3

	// tailSentences is how many closing sentences the extractive summary keeps.
	tailSentences = 2

	// elision marks the omitted middle of an extractive summary.
	elision = " [...] "
)

// sentencePattern matches a run of non-terminal characters followed by one or
// more terminal punctuation marks.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Sentences splits text into trimmed sentences. Trailing text without terminal
// punctuation is not a sentence.
func Sentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Extractive builds a summary from the first three and last two sentences of
// text. Text with five sentences or fewer is returned unchanged.
func Extractive(text string) string {
	sentences := Sentences(text)
	if len(sentences) <= leadSentences+tailSentences {
		return text
	}

	n := len(sentences)
	return strings.Join(sentences[:leadSentences], " ") +
		elision +
		strings.Join(sentences[n-tailSentences:], " ")
}
