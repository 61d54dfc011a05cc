// Package match finds the spec record that best corroborates a listing's
// canonical key, first by exact lookup and then by fuzzy scoring.
package match

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Scorer rates the similarity of two keys in [0, 1].
type Scorer func(a, b string) float64

// Similarity is the default Scorer: the greater of a character-sequence
// ratio and a word-set overlap.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	seq := levenshtein.Similarity(a, b, nil)
	words := wordOverlap(a, b)
	if words > seq {
		return words
	}
	return seq
}

// wordOverlap is the Jaccard index of the two word sets.
func wordOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// modelNumbers extracts the digit runs of a key in order ("samsung galaxy
// a55" yields ["55"]).
func modelNumbers(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		switch {
		case unicode.IsDigit(r) && start < 0:
			start = i
		case !unicode.IsDigit(r) && start >= 0:
			out = append(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// sameModelNumbers reports whether two keys carry identical digit runs.
// Keys without any digits are compatible with anything.
func sameModelNumbers(a, b string) bool {
	na, nb := modelNumbers(a), modelNumbers(b)
	if len(na) == 0 || len(nb) == 0 {
		return true
	}
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
