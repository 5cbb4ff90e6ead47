package retrieval

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "any": {}, "are": {}, "be": {},
	"can": {}, "could": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"have": {}, "how": {}, "i": {}, "if": {}, "in": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "please": {},
	"policies": {}, "policy": {}, "tell": {}, "that": {}, "the": {}, "there": {},
	"this": {}, "to": {}, "was": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "will": {}, "with": {}, "would": {},
	"you": {}, "your": {},
}

// Terms splits a query into lower-cased search terms. Stop words and
// duplicates are dropped. When nothing survives, the whole trimmed,
// lower-cased query is the only term so a non-empty query always searches.
func Terms(query string) []string {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if trimmed == "" {
		return nil
	}

	words := strings.FieldsFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}

	if len(terms) == 0 {
		return []string{trimmed}
	}
	return terms
}
