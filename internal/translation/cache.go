package translation

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/faqbot/internal/lang"
)

type cacheKey struct {
	from, to lang.Code
	text     string
}

// Cached memoizes successful translations in a bounded LRU. Failures are
// not cached.
type Cached struct {
	next  Translator
	cache *lru.Cache[cacheKey, string]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Translator, size int) (*Cached, error) {
	cache, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating translation cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Translate implements Translator.
func (c *Cached) Translate(ctx context.Context, text string, from, to lang.Code) (string, error) {
	if from == to {
		return text, nil
	}
	key := cacheKey{from: from, to: to, text: text}
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

// Len returns the number of cached translations.
func (c *Cached) Len() int {
	return c.cache.Len()
}
