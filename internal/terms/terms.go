// Package terms tokenizes utterances and FAQ text into comparable terms.
package terms

import (
	"strings"
	"unicode"
)

// MinKeywordLength is the shortest token, in runes, kept as a keyword.
const MinKeywordLength = 3

var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`the a an is are was were be been being have has had do does did will
		would could should may might can to of in for on with at by from as into about like through after
		over between out against during without before under around among and or but if then else when up
		down that this these those what which who whom whose where why how all each every both few more most
		other some such no nor not only own same so than too very just also now here there my your his her
		its our their me you him us them i we he she it they please tell know want need
		है हैं और में का की के को से पर यह वह लिए क्या मुझे`) {
		stopwords[w] = true
	}
}

// IsStopword reports whether the lowercased word carries no topical meaning.
func IsStopword(w string) bool {
	return stopwords[w]
}

// Tokens lowercases text and splits it into words made of letters, marks and digits.
// Combining marks are kept so Indic words stay intact.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r))
	})
}

// Keywords returns the unique non-stopword tokens of at least MinKeywordLength runes,
// in first-occurrence order.
func Keywords(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range Tokens(text) {
		if len([]rune(tok)) < MinKeywordLength || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Set returns the keywords of text as a set.
func Set(text string) map[string]bool {
	kws := Keywords(text)
	set := make(map[string]bool, len(kws))
	for _, k := range kws {
		set[k] = true
	}
	return set
}

// Trigrams returns the character trigram multiset of the normalized text, padded
// with spaces so short words still produce grams.
func Trigrams(text string) map[string]int {
	norm := " " + strings.Join(Tokens(text), " ") + " "
	runes := []rune(norm)
	grams := make(map[string]int)
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])]++
	}
	return grams
}

// Dice is the Sørensen–Dice coefficient of two trigram multisets, in [0,1].
func Dice(a, b map[string]int) float64 {
	total := 0
	for _, n := range a {
		total += n
	}
	for _, n := range b {
		total += n
	}
	if total == 0 {
		return 0
	}
	shared := 0
	for g, n := range a {
		if m, ok := b[g]; ok {
			shared += min(n, m)
		}
	}
	return 2 * float64(shared) / float64(total)
}
