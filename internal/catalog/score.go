package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scoring constants. A base score below MinScore keeps a result out of the
// suggestion list entirely; the popularity bonus only applies from
// strongMatchScore upward, so popularity alone can never promote a weak match.
const (
	exactScore       = 100
	prefixScore      = 90
	substringScore   = 70
	partialScoreMax  = 60
	strongMatchScore = 70

	// MinScore is the minimum fuzzy score for a catalog entry to appear in
	// suggestions.
	MinScore = 50
)

// foldTransformer strips diacritics: decompose, drop combining marks, recompose.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text, strips diacritics, and drops punctuation so
// "São Paulo" and "sao paulo" compare equal.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Score rates how well a target matches a query, 0..100. Both inputs are
// normalized before comparison. Exact beats prefix beats substring; queries
// with several words get partial credit for each word found in the target.
// The popularity bonus (popularity 1..10) applies only to strong matches.
func Score(query, target string, popularity int) int {
	q := Normalize(query)
	tgt := Normalize(target)
	if q == "" || tgt == "" {
		return 0
	}

	base := 0
	switch {
	case tgt == q:
		base = exactScore
	case strings.HasPrefix(tgt, q):
		base = prefixScore
	case strings.Contains(tgt, q):
		base = substringScore
	default:
		base = partialWordScore(q, tgt)
	}

	if base >= strongMatchScore && base < exactScore {
		base += popularity / 2
		if base > exactScore {
			base = exactScore
		}
	}

	return base
}

// partialWordScore gives up to partialScoreMax based on the fraction of query
// words individually found as prefixes or substrings of target words.
func partialWordScore(q, tgt string) int {
	queryWords := strings.Fields(q)
	targetWords := strings.Fields(tgt)
	if len(queryWords) == 0 || len(targetWords) == 0 {
		return 0
	}

	matched := 0
	for _, qw := range queryWords {
		for _, tw := range targetWords {
			if strings.HasPrefix(tw, qw) || strings.Contains(tw, qw) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}

	return partialScoreMax * matched / len(queryWords)
}
