// Package composer turns a routing outcome into the response a user sees:
// translated into the user's language, with follow-up suggestions attached.
package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/router"
	"github.com/ziadkadry99/faqbot/internal/timeout"
	"github.com/ziadkadry99/faqbot/internal/translation"
)

// maxParallelTranslations bounds concurrent suggestion translations.
const maxParallelTranslations = 4

// SnapshotSource yields the current FAQ snapshot.
type SnapshotSource interface {
	Snapshot() *faq.Snapshot
}

// Options configures a Composer.
type Options struct {
	Pivot              lang.Code
	MaxSuggestions     int
	TranslationTimeout time.Duration
	Logger             zerolog.Logger
}

// Composer is safe for concurrent use.
type Composer struct {
	translator translation.Translator
	faqs       SnapshotSource
	opts       Options
}

// New creates a Composer. faqs may be nil, in which case no suggestions are
// attached.
func New(translator translation.Translator, faqs SnapshotSource, opts Options) *Composer {
	if translator == nil {
		translator = translation.Unavailable{}
	}
	if opts.Pivot == "" {
		opts.Pivot = lang.English
	}
	return &Composer{translator: translator, faqs: faqs, opts: opts}
}

// Compose builds the response for out. The answer is translated into the
// utterance language when it is in another one; if that fails the original
// text is kept and the response is marked degraded.
func (c *Composer) Compose(ctx context.Context, out *router.Outcome, u lang.Utterance, res intent.Result) chat.Response {
	resp := chat.Response{
		Text:       out.Text,
		Language:   out.Language,
		Confidence: out.Confidence,
		Strategy:   out.Strategy,
		Intent:     res.Intent,
		Provenance: out.Provenance,
	}
	if resp.Provenance == nil {
		resp.Provenance = []chat.Provenance{}
	}

	if out.Language != u.Language {
		text, err := c.translate(ctx, out.Text, out.Language, u.Language)
		if err != nil {
			resp.Degraded = true
			resp.DegradedReason = fmt.Sprintf("answer could not be translated to %s", u.Language)
			c.opts.Logger.Warn().Err(err).
				Str("from", string(out.Language)).
				Str("to", string(u.Language)).
				Msg("response translation failed; returning untranslated answer")
		} else {
			resp.Text = text
			resp.Language = u.Language
		}
	}

	if out.Strategy != chat.StrategyHandoff {
		resp.Suggestions = c.suggestions(ctx, out, u, res.Intent)
	}
	return resp
}

// suggestions returns up to MaxSuggestions related FAQ questions in the
// utterance language. Pivot-language questions are translated concurrently
// and dropped when their translation fails.
func (c *Composer) suggestions(ctx context.Context, out *router.Outcome, u lang.Utterance, in intent.Intent) []string {
	n := c.opts.MaxSuggestions
	if c.faqs == nil || n <= 0 {
		return nil
	}
	snap := c.faqs.Snapshot()
	if snap == nil {
		return nil
	}
	exclude := ""
	if out.FAQ != nil {
		exclude = out.FAQ.ID
	}

	if related := snap.Related(in, u.Language, exclude, u.Canonical, n); len(related) > 0 {
		return questions(related)
	}
	if u.Language == c.opts.Pivot {
		return nil
	}
	related := snap.Related(in, c.opts.Pivot, exclude, u.Canonical, n)
	if len(related) == 0 {
		return nil
	}

	translated := make([]string, len(related))
	var g errgroup.Group
	g.SetLimit(maxParallelTranslations)
	for i, e := range related {
		g.Go(func() error {
			text, err := c.translate(ctx, e.Question, c.opts.Pivot, u.Language)
			if err != nil {
				c.opts.Logger.Debug().Err(err).Str("faq_id", e.ID).Msg("dropping untranslatable suggestion")
				return nil
			}
			translated[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var kept []string
	for _, s := range translated {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return kept
}

func (c *Composer) translate(ctx context.Context, text string, from, to lang.Code) (string, error) {
	out, err := timeout.Call(ctx, c.opts.TranslationTimeout, func(ctx context.Context) (string, error) {
		return c.translator.Translate(ctx, text, from, to)
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%s to %s: %w: empty translation", from, to, translation.ErrUnavailable)
	}
	return out, nil
}

func questions(entries []faq.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Question
	}
	return out
}
