package faq

import (
	"sort"

	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/terms"
)

// Related returns up to n entries of the language in the intent's category,
// excluding excludeID. Entries sharing more keywords with text come first;
// ties keep insertion order.
func (s *Snapshot) Related(in intent.Intent, code lang.Code, excludeID, text string, n int) []Entry {
	if n <= 0 {
		return nil
	}
	category := in.Category()
	kws := terms.Keywords(text)

	type ranked struct {
		ix      *indexed
		overlap int
	}
	var list []ranked
	for _, ix := range s.byLanguage[code] {
		if ix.entry.Category != category || ix.entry.ID == excludeID {
			continue
		}
		overlap := 0
		for _, kw := range kws {
			if ix.keywords[kw] {
				overlap++
			}
		}
		list = append(list, ranked{ix, overlap})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].overlap != list[j].overlap {
			return list[i].overlap > list[j].overlap
		}
		return list[i].ix.seq < list[j].ix.seq
	})

	if len(list) > n {
		list = list[:n]
	}
	out := make([]Entry, len(list))
	for i, r := range list {
		out[i] = r.ix.clone()
	}
	return out
}
