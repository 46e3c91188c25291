// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, splits on whitespace, trims punctuation from the
// edges of every piece, and returns the distinct surviving pieces.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"
)

// Set is a collection of distinct normalised terms.
type Set map[string]struct{}

// Has reports whether term is in the set.
func (s Set) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// Sorted returns the terms in lexical order.
func (s Set) Sorted() []string {
	terms := make([]string, 0, len(s))
	for term := range s {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Tokenize breaks text into its set of lowercased, punctuation-trimmed terms.
// Interior punctuation survives, so "notes.md" stays a single term.
func Tokenize(text string) Set {
	words := strings.Fields(strings.ToLower(text))
	tokens := make(Set, len(words))
	for _, word := range words {
		term := strings.TrimFunc(word, unicode.IsPunct)
		if term == "" {
			continue
		}
		tokens[term] = struct{}{}
	}
	return tokens
}

// Join renders a set back into text that tokenizes to the same set.
func Join(s Set) string {
	return strings.Join(s.Sorted(), " ")
}
