// Package textmatch provides case-insensitive substring matching over free text.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns s case-folded for caseless comparison.
func Fold(s string) string {
	// cases.Caser is stateful and not safe for concurrent use.
	return cases.Fold().String(s)
}

// Contains reports whether needle occurs in haystack, ignoring case.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Term is a vocabulary entry: a display name and the phrases that signal it.
type Term struct {
	Name     string
	Patterns []string
}

// Matcher tests folded text against a fixed vocabulary.
type Matcher struct {
	terms  []Term
	folded [][]string
}

// NewMatcher pre-folds the vocabulary patterns. A term with no patterns
// matches on its own name.
func NewMatcher(terms ...Term) *Matcher {
	m := &Matcher{terms: terms, folded: make([][]string, len(terms))}
	for i, t := range terms {
		patterns := t.Patterns
		if len(patterns) == 0 {
			patterns = []string{t.Name}
		}
		for _, p := range patterns {
			m.folded[i] = append(m.folded[i], Fold(p))
		}
	}
	return m
}

// Match returns the names of terms present in text, in vocabulary order.
// The result is never nil.
func (m *Matcher) Match(text string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	folded := Fold(text)
	for i, t := range m.terms {
		for _, p := range m.folded[i] {
			if strings.Contains(folded, p) {
				out = append(out, t.Name)
				break
			}
		}
	}
	return out
}
