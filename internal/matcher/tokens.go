package matcher

import (
	"strings"
	"unicode"
)

// DefaultStopWords are dropped from both sides before scoring.
var DefaultStopWords = []string{"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for"}

type tokenSet map[string]struct{}

// tokenize lower-cases s and splits it on whitespace.
func tokenize(s string) tokenSet {
	set := make(tokenSet)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// without returns the tokens for which drop reports false.
func (s tokenSet) without(drop func(string) bool) tokenSet {
	out := make(tokenSet, len(s))
	for tok := range s {
		if !drop(tok) {
			out[tok] = struct{}{}
		}
	}
	return out
}

// jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func jaccard(a, b tokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
