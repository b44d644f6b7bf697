// Package match provides the pure name and date comparison functions used by
// cross-document validation.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultNameThreshold is the minimum similarity score treated as a match.
const DefaultNameThreshold = 0.85

var honorifics = map[string]struct{}{
	"MR": {}, "MRS": {}, "MS": {}, "MISS": {},
	"DR": {}, "PROF": {}, "SIR": {}, "MADAM": {},
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a personal name for comparison: uppercase,
// honorific titles removed as whole tokens, MRZ fillers treated as spaces,
// diacritics folded to base letters, punctuation dropped, whitespace
// collapsed. Idempotent; empty input normalizes to "".
func NormalizeName(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.ReplaceAll(upper, "<", " ")

	if folded, _, err := transform.String(diacriticStripper, upper); err == nil {
		upper = folded
	}

	var tokens []string
	for _, tok := range strings.Fields(upper) {
		if _, isTitle := honorifics[strings.TrimSuffix(tok, ".")]; isTitle {
			continue
		}
		tok = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

// FuzzyMatch compares two names with a token-order-insensitive edit
// similarity in [0, 1]. Empty names never match.
func FuzzyMatch(a, b string, threshold float64) (bool, float64) {
	normA := NormalizeName(a)
	normB := NormalizeName(b)
	if normA == "" || normB == "" {
		return false, 0.0
	}

	score := similarity(sortTokens(normA), sortTokens(normB))
	return score >= threshold, score
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
