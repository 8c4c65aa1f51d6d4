package faq

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/terms"
)

// Source lists the FAQ collection. Entries are returned in insertion order.
type Source interface {
	ListEntries(ctx context.Context) ([]Entry, error)
}

type indexed struct {
	entry    Entry
	seq      int
	keywords map[string]bool
	trigrams map[string]int
}

// Snapshot is an immutable, versioned view of the FAQ collection.
type Snapshot struct {
	version    uint64
	byLanguage map[lang.Code][]*indexed
	byID       map[string]*indexed
	size       int
}

// NewSnapshot indexes entries. Their order is the insertion order used for tie-breaks.
func NewSnapshot(version uint64, entries []Entry) *Snapshot {
	s := &Snapshot{
		version:    version,
		byLanguage: make(map[lang.Code][]*indexed),
		byID:       make(map[string]*indexed, len(entries)),
		size:       len(entries),
	}
	for i, e := range entries {
		e.Keywords = append([]string(nil), e.Keywords...)
		ix := &indexed{
			entry:    e,
			seq:      i,
			keywords: terms.Set(e.Question),
			trigrams: terms.Trigrams(e.Question),
		}
		for _, kw := range e.Keywords {
			for _, tok := range terms.Tokens(kw) {
				ix.keywords[tok] = true
			}
		}
		s.byLanguage[e.Language] = append(s.byLanguage[e.Language], ix)
		s.byID[e.ID] = ix
	}
	return s
}

// Version increases with every reload.
func (s *Snapshot) Version() uint64 { return s.version }

// Len returns the number of entries.
func (s *Snapshot) Len() int { return s.size }

// Get returns the entry with the given id.
func (s *Snapshot) Get(id string) (Entry, bool) {
	ix, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return ix.clone(), true
}

// Entries returns the entries of a language, optionally restricted to a category,
// in insertion order. An empty code returns every language.
func (s *Snapshot) Entries(code lang.Code, category intent.Intent) []Entry {
	var out []Entry
	collect := func(list []*indexed) {
		for _, ix := range list {
			if category == "" || ix.entry.Category == category {
				out = append(out, ix.clone())
			}
		}
	}
	if code != "" {
		collect(s.byLanguage[code])
		return out
	}
	all := make([]*indexed, 0, s.size)
	for _, list := range s.byLanguage {
		all = append(all, list...)
	}
	sortBySeq(all)
	collect(all)
	return out
}

// HasLanguage reports whether any entry exists in code.
func (s *Snapshot) HasLanguage(code lang.Code) bool {
	return len(s.byLanguage[code]) > 0
}

// Search returns up to limit entries of the language whose question, answer or
// keywords contain every query keyword, in insertion order.
func (s *Snapshot) Search(query string, code lang.Code, limit int) []Entry {
	kws := terms.Keywords(query)
	var out []Entry
	for _, ix := range s.byLanguage[code] {
		hay := strings.ToLower(ix.entry.Question + " " + ix.entry.Answer + " " + strings.Join(ix.entry.Keywords, " "))
		ok := true
		for _, kw := range kws {
			if !strings.Contains(hay, kw) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, ix.clone())
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func sortBySeq(list []*indexed) {
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
}

// clone returns the entry with its own keyword slice so callers cannot
// reach into the snapshot.
func (ix *indexed) clone() Entry {
	e := ix.entry
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}

// Catalog owns the current Snapshot. Readers never lock; reloads build a new
// snapshot and swap it in atomically.
type Catalog struct {
	src     Source
	current atomic.Pointer[Snapshot]
	tickets atomic.Uint64
	group   singleflight.Group
	log     zerolog.Logger
}

// NewCatalog creates a catalog serving an empty snapshot until the first reload.
func NewCatalog(src Source, log zerolog.Logger) *Catalog {
	c := &Catalog{src: src, log: log}
	c.current.Store(NewSnapshot(0, nil))
	return c
}

// Snapshot returns the current snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Reload loads the collection from the source and swaps it in. Concurrent
// calls share one load.
func (c *Catalog) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := c.group.Do("reload", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Refresh forces a new load even if one is in flight, so writes made before
// the call are visible once it returns.
func (c *Catalog) Refresh(ctx context.Context) (*Snapshot, error) {
	c.group.Forget("reload")
	return c.Reload(ctx)
}

// Invalidate schedules a background refresh. Failures are logged and the
// previous snapshot keeps serving.
func (c *Catalog) Invalidate() {
	go func() {
		if _, err := c.Refresh(context.Background()); err != nil {
			c.log.Error().Err(err).Msg("faq catalog refresh failed")
		}
	}()
}

func (c *Catalog) load(ctx context.Context) (*Snapshot, error) {
	ticket := c.tickets.Add(1)
	entries, err := c.src.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading faq entries: %w", err)
	}
	next := NewSnapshot(ticket, entries)

	// A slower, older load must not replace a newer snapshot.
	for {
		cur := c.current.Load()
		if cur.version >= ticket {
			return cur, nil
		}
		if c.current.CompareAndSwap(cur, next) {
			c.log.Info().Uint64("version", ticket).Int("entries", next.size).Msg("faq catalog reloaded")
			return next, nil
		}
	}
}

// StaticSource serves a fixed list of entries.
type StaticSource []Entry

// ListEntries implements Source.
func (s StaticSource) ListEntries(context.Context) ([]Entry, error) {
	return append([]Entry(nil), s...), nil
}
