package similarity

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining marks, so "Paré"
// and "Pare" compare equal.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize prepares a field value for comparison: diacritics stripped,
// lowercased, punctuation replaced by spaces, whitespace collapsed.
func Normalize(s string) string {
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// levenshtein computes the edit distance between two rune slices with the
// two-row form of the Wagner-Fischer recurrence.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ratio maps edit distance into [0, 1]: 1 for identical strings, 0 when
// every position differs.
func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	longest := max(len(ra), len(rb))
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// partialRatio returns the best ratio of the shorter string against every
// equal-length window of the longer one, so "J Inf Technol" still matches
// inside "Journal of Information Technology and Society".
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 1
		}
		return 0
	}
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		r := 1 - float64(levenshtein(ra, rb[i:i+len(ra)]))/float64(len(ra))
		if r > best {
			best = r
		}
		if best == 1 {
			break
		}
	}
	return best
}

// tokenSortRatio compares strings independent of token order, which makes
// "Lukyanenko, Roman and Wagner, Gerit" match its reordered form.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
