package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// minKeywordLen is the minimum rune length of a significant keyword.
const minKeywordLen = 3

// stopWords are never treated as significant keywords.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "from": true,
	"into": true, "via": true, "tab": true, "sheet": true, "are": true,
	"not": true, "all": true, "any": true, "its": true, "this": true,
	"that": true,
}

// Normalize returns s compatibility-normalized, case-folded, with
// camelCase and punctuation split into single-space separated tokens.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = splitCamel(s)
	// Casers keep state and must not be shared across goroutines.
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits s into normalized tokens.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// splitCamel inserts a space at lower-to-upper transitions and before
// the last capital of an acronym followed by a lower-case letter, so
// "VenProxy" becomes "Ven Proxy" and "XMLParser" becomes "XML Parser".
func splitCamel(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Keywords returns the distinct significant tokens of s in order of
// first appearance.
func Keywords(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range Tokens(s) {
		if utf8.RuneCountInString(t) < minKeywordLen || stopWords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// tokenSimilarity scores two token lists in [0,1], ignoring token order.
// It is the larger of the token-set Dice coefficient and the
// character-bigram Dice coefficient of the sorted token strings.
func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := sortedJoin(a)
	sb := sortedJoin(b)
	if sa == sb {
		return 1
	}
	return max(tokenDice(a, b), bigramDice(sa, sb))
}

func sortedJoin(tokens []string) string {
	c := append([]string(nil), tokens...)
	sort.Strings(c)
	return strings.Join(c, " ")
}

// tokenDice is the Dice coefficient of the distinct token sets.
func tokenDice(a, b []string) float64 {
	sa := make(map[string]bool, len(a))
	for _, t := range a {
		sa[t] = true
	}
	sb := make(map[string]bool, len(b))
	for _, t := range b {
		sb[t] = true
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(sa)+len(sb))
}

// bigramDice is the Dice coefficient of the character bigram multisets.
func bigramDice(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}
	counts := make(map[[2]rune]int, len(ra))
	for i := 0; i+1 < len(ra); i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}
	inter := 0
	for i := 0; i+1 < len(rb); i++ {
		k := [2]rune{rb[i], rb[i+1]}
		if counts[k] > 0 {
			counts[k]--
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(ra)-1+len(rb)-1)
}
