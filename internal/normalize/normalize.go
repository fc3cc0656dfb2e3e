// Package normalize implements the single Unicode normalisation rule used by
// both the hint extractor and the scorer (spec.md §4.4): lowercase,
// NFD-decompose, strip combining marks, keep letters/digits/whitespace,
// collapse spaces. Centralised here so C1 and C4 never drift apart.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, strips diacritics, keeps only letters/digits/whitespace,
// and collapses runs of whitespace to a single space.
func Fold(s string) string {
	s = strings.ToLower(s)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastWasSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens splits a folded string on whitespace.
func Tokens(s string) []string {
	folded := Fold(s)
	if folded == "" {
		return nil
	}
	return strings.Split(folded, " ")
}

// Jaccard computes the token-set Jaccard similarity of a and b (used by C4's
// nameMatch component).
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range Tokens(s) {
		set[t] = true
	}
	return set
}
