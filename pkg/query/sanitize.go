package query

import (
	"strings"
)

const luceneSpecialChars = `+-&|!(){}[]^"~*?:\/`

// RemoveLuceneChars replaces every Lucene query operator with a space,
// collapses whitespace runs and trims the result.
func RemoveLuceneChars(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(luceneSpecialChars, r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

// GenerateFullTextQuery builds a fuzzy full-text query that requires every
// word of text within edit distance 2, e.g. "kit kat" -> "kit~2 AND kat~2".
func GenerateFullTextQuery(text string) string {
	words := strings.Fields(RemoveLuceneChars(text))
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = w + "~2"
	}
	return strings.Join(words, " AND ")
}
