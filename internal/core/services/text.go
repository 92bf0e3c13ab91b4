package services

import (
	"strings"
	"unicode"
)

// stopwords are ignored when matching query tokens against contexts.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {},
	"in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "use": {}, "using": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {},
}

// normalizeQuery lowercases, trims and collapses whitespace. It is the
// search cache key.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// splitWords lowercases text and splits it on anything that is not a
// letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// queryTokens returns the distinct non-stopword tokens of a query in
// first-seen order.
func queryTokens(query string) []string {
	words := splitWords(query)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// wordSet indexes the words of text.
func wordSet(text string) map[string]struct{} {
	words := splitWords(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
