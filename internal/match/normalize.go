package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// editionSuffixes are trailing phrases stripped during normalization, longest
// first so compound phrases win over their tails.
var editionSuffixes = [][]string{
	{"game", "of", "the", "year", "edition"},
	{"goty", "edition"},
	{"definitive", "edition"},
	{"complete", "edition"},
	{"enhanced", "edition"},
	{"anniversary", "edition"},
	{"collectors", "edition"},
	{"deluxe", "edition"},
	{"special", "edition"},
	{"ultimate", "edition"},
	{"directors", "cut"},
	{"remastered"},
	{"remaster"},
	{"goty"},
	{"hd"},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the canonical comparison form of a title: diacritics
// folded, case-folded, parenthetical platform/year tags removed, punctuation
// collapsed to spaces, and common edition suffixes stripped.
func Normalize(title string) string {
	return strings.Join(tokenize(title), " ")
}

func tokenize(title string) []string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}
	folded = stripParentheticals(strings.ToLower(folded))

	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	parts := strings.Fields(b.String())
	return stripEditionSuffix(parts)
}

func stripParentheticals(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func stripEditionSuffix(parts []string) []string {
	for {
		trimmed := false
		for _, suffix := range editionSuffixes {
			if len(parts) > len(suffix) && hasSuffix(parts, suffix) {
				parts = parts[:len(parts)-len(suffix)]
				trimmed = true
				break
			}
		}
		if !trimmed {
			return parts
		}
	}
}

func hasSuffix(parts, suffix []string) bool {
	offset := len(parts) - len(suffix)
	for i, word := range suffix {
		if parts[offset+i] != word {
			return false
		}
	}
	return true
}

// Score returns the similarity between two titles in [0, 1]: the Sørensen-Dice
// coefficient over their normalized token sets. Identical normalized forms
// score 1.
func Score(a, b string) float64 {
	return diceScore(tokenize(a), tokenize(b))
}

func diceScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	shared := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(setA)+len(setB))
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
