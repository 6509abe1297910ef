package correlation

import "strings"

// stopwords that cannot be the subject of a visual description.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"there": true, "this": true, "that": true, "it": true, "its": true,
	"on": true, "in": true, "at": true, "of": true, "with": true, "and": true,
	"screen": true, "shows": true, "showing": true, "appears": true,
	"player": true, "now": true, "has": true, "have": true, "to": true,
	"some": true, "very": true, "big": true, "small": true, "new": true,
}

// StopwordExtractor is the default subject extractor: the first word longer
// than three characters that is not a stopword, lowercased and stripped of
// trailing punctuation.
type StopwordExtractor struct{}

// Subject implements SubjectExtractor.
func (StopwordExtractor) Subject(text string) string {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if len(word) <= 3 || stopwords[word] {
			continue
		}
		return word
	}
	return ""
}
