package faq

import (
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/terms"
)

// Default matcher settings.
const (
	DefaultThreshold     = 0.6
	DefaultKeywordWeight = 0.6
)

// Matcher scores FAQ entries against an utterance.
//
// score = w*overlap + (1-w)*dice, where overlap is the share of query keywords
// found in the entry's keywords or question and dice is the trigram Dice
// coefficient between the utterance and the entry question.
type Matcher struct {
	catalog       *Catalog
	threshold     float64
	keywordWeight float64
}

// NewMatcher creates a matcher over the catalog's current snapshot.
func NewMatcher(catalog *Catalog, threshold, keywordWeight float64) *Matcher {
	return &Matcher{catalog: catalog, threshold: threshold, keywordWeight: keywordWeight}
}

// Threshold returns the minimum score of a match.
func (m *Matcher) Threshold() float64 { return m.threshold }

// HasLanguage reports whether the collection has entries in code.
func (m *Matcher) HasLanguage(code lang.Code) bool {
	return m.catalog.Snapshot().HasLanguage(code)
}

// Match returns the best entry of the requested language. Entries of the
// intent's category are tried first; the whole language is searched when none
// of them clears the threshold. ok is false when nothing clears it.
func (m *Matcher) Match(text string, in intent.Intent, code lang.Code) (Match, bool) {
	snap := m.catalog.Snapshot()
	candidates := snap.byLanguage[code]
	if len(candidates) == 0 {
		return Match{}, false
	}

	q := query{keywords: terms.Keywords(text), trigrams: terms.Trigrams(text)}

	if in != intent.Unknown {
		if best, ok := m.best(q, candidates, func(ix *indexed) bool { return ix.entry.Category == in }); ok && best.score >= m.threshold {
			return best.match(), true
		}
	}
	best, ok := m.best(q, candidates, nil)
	if !ok || best.score < m.threshold {
		return Match{}, false
	}
	return best.match(), true
}

// Score computes the similarity of text to a single entry.
func (m *Matcher) Score(text string, e Entry) float64 {
	ix := NewSnapshot(0, []Entry{e}).byID[e.ID]
	return m.score(query{keywords: terms.Keywords(text), trigrams: terms.Trigrams(text)}, ix).score
}

type query struct {
	keywords []string
	trigrams map[string]int
}

type candidate struct {
	ix      *indexed
	score   float64
	matched int
}

func (c candidate) match() Match {
	return Match{Entry: c.ix.clone(), Score: c.score, MatchedKeywords: c.matched}
}

// better orders candidates by score, then matched keywords, then insertion order.
func (c candidate) better(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	if c.matched != o.matched {
		return c.matched > o.matched
	}
	return c.ix.seq < o.ix.seq
}

func (m *Matcher) best(q query, list []*indexed, keep func(*indexed) bool) (candidate, bool) {
	var best candidate
	found := false
	for _, ix := range list {
		if keep != nil && !keep(ix) {
			continue
		}
		c := m.score(q, ix)
		if !found || c.better(best) {
			best, found = c, true
		}
	}
	return best, found
}

func (m *Matcher) score(q query, ix *indexed) candidate {
	matched := 0
	for _, kw := range q.keywords {
		if ix.keywords[kw] {
			matched++
		}
	}
	overlap := 0.0
	if len(q.keywords) > 0 {
		overlap = float64(matched) / float64(len(q.keywords))
	}
	dice := terms.Dice(q.trigrams, ix.trigrams)
	s := m.keywordWeight*overlap + (1-m.keywordWeight)*dice
	if s > 1 {
		s = 1
	}
	return candidate{ix: ix, score: s, matched: matched}
}
