// Package router decides how a classified utterance gets answered. It walks a
// fixed sequence of states, FAQ_CHECK, DOC_RETRIEVAL, GENERATIVE_FALLBACK and
// HUMAN_HANDOFF, and stops at the first state that accepts.
package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/llm"
	"github.com/ziadkadry99/faqbot/internal/terms"
	"github.com/ziadkadry99/faqbot/internal/timeout"
	"github.com/ziadkadry99/faqbot/internal/translation"
)

// FAQMatcher finds the best FAQ entry for a text in one language.
type FAQMatcher interface {
	Match(text string, in intent.Intent, code lang.Code) (faq.Match, bool)
}

// Retriever searches the document index.
type Retriever interface {
	Search(ctx context.Context, query string, code lang.Code, k int) ([]chat.Chunk, error)
}

// Generator produces an answer, optionally grounded on chunks.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Generation, error)
}

// Observer is told about every visited state and every absorbed backend error.
type Observer interface {
	StateVisited(state State, accepted bool)
	BackendFailed(state State, err *BackendError)
}

// Request is the input of one routing decision.
type Request struct {
	SessionID string
	Utterance lang.Utterance
	Intent    intent.Result
	History   []llm.Exchange
	// Pivot is the utterance already translated to the pivot language, if
	// an earlier stage did so. It is used instead of translating again.
	Pivot string
}

// Outcome is the answer chosen by the router, before composition.
type Outcome struct {
	Strategy   chat.Strategy     `json:"strategy"`
	Text       string            `json:"text"`
	Language   lang.Code         `json:"language"`
	Confidence float64           `json:"confidence"`
	Provenance []chat.Provenance `json:"provenance"`
	// FAQ is the matched entry when Strategy is faq.
	FAQ   *faq.Entry `json:"faq,omitempty"`
	Trace []Step     `json:"trace"`
}

// Router is safe for concurrent use.
type Router struct {
	faqs       FAQMatcher
	retriever  Retriever
	generator  Generator
	translator translation.Translator
	cfg        Config
	log        zerolog.Logger
	observer   Observer
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for absorbed backend errors.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// New creates a Router. A nil translator means no translation is available.
func New(faqs FAQMatcher, retriever Retriever, generator Generator, translator translation.Translator, cfg Config, opts ...Option) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("router config: %w", err)
	}
	if faqs == nil || retriever == nil || generator == nil {
		return nil, errors.New("router: faq matcher, retriever and generator are required")
	}
	if translator == nil {
		translator = translation.Unavailable{}
	}
	r := &Router{
		faqs:       faqs,
		retriever:  retriever,
		generator:  generator,
		translator: translator,
		cfg:        cfg,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the router configuration.
func (r *Router) Config() Config { return r.cfg }

// Route walks the states in order and returns the first accepted outcome.
// Backend failures are absorbed as rejections. The only errors returned are
// ErrHandoffConfiguration and the context's error.
func (r *Router) Route(ctx context.Context, req Request) (*Outcome, error) {
	run := &run{Router: r, req: req}
	var trace []Step

	for state := FAQCheck; state != done; state = next(state) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, step, err := run.visit(ctx, state)
		if err != nil {
			return nil, err
		}
		trace = append(trace, step)
		if r.observer != nil {
			r.observer.StateVisited(state, step.Accepted)
		}
		if step.Accepted {
			out.Confidence = clamp(out.Confidence)
			out.Trace = trace
			return out, nil
		}
	}
	// HumanHandoff always accepts or errors.
	return nil, ErrHandoffConfiguration
}

// run holds the per-request state, including the lazily translated query.
type run struct {
	*Router
	req Request

	pivoted   bool
	pivotText string
	pivotCode lang.Code
	pivotOK   bool
}

func (r *run) visit(ctx context.Context, s State) (*Outcome, Step, error) {
	switch s {
	case FAQCheck:
		out, step := r.faqCheck(ctx)
		return out, step, nil
	case DocRetrieval:
		out, step := r.docRetrieval(ctx)
		return out, step, nil
	case GenerativeFallback:
		out, step := r.generative(ctx)
		return out, step, nil
	case HumanHandoff:
		return r.handoff()
	}
	return nil, Step{State: s}, fmt.Errorf("router: unknown state %d", s)
}

func (r *run) faqCheck(ctx context.Context) (*Outcome, Step) {
	step := Step{State: FAQCheck}
	u := r.req.Utterance
	in := r.req.Intent.Intent

	m, ok := r.faqs.Match(u.Canonical, in, u.Language)
	if !ok && u.Language != r.cfg.Pivot {
		if text, code, translated := r.pivot(ctx, FAQCheck); translated {
			m, ok = r.faqs.Match(text, in, code)
		}
	}
	if !ok || m.Score < r.cfg.FAQThreshold {
		step.Reason = "no faq entry above threshold"
		return nil, step
	}

	entry := m.Entry
	step.Accepted = true
	step.Reason = fmt.Sprintf("faq %s scored %.2f", entry.ID, m.Score)
	return &Outcome{
		Strategy:   chat.StrategyFAQ,
		Text:       entry.Answer,
		Language:   entry.Language,
		Confidence: m.Score,
		Provenance: []chat.Provenance{{Kind: chat.ProvenanceFAQ, ID: entry.ID, Source: string(entry.Category), Score: m.Score}},
		FAQ:        &entry,
	}, step
}

// answerable reports whether retrieval is worth attempting.
func (r *run) answerable() bool {
	switch r.req.Intent.Intent {
	case intent.HumanAgent:
		return false
	case intent.Unknown, intent.Greeting, intent.Goodbye:
		return len(terms.Keywords(r.req.Utterance.Canonical)) >= r.cfg.MinQueryTerms
	}
	return true
}

func (r *run) docRetrieval(ctx context.Context) (*Outcome, Step) {
	step := Step{State: DocRetrieval}
	if !r.answerable() {
		step.Reason = "utterance not answerable from documents"
		return nil, step
	}

	query, code, _ := r.pivot(ctx, DocRetrieval)
	chunks, err := timeout.Call(ctx, r.cfg.Timeouts.Retrieval, func(ctx context.Context) ([]chat.Chunk, error) {
		return r.retriever.Search(ctx, query, code, r.cfg.TopK)
	})
	if err != nil {
		return nil, r.reject(ctx, step, BackendRetrieval, "search", err)
	}

	var kept []chat.Chunk
	top := 0.0
	for _, c := range chunks {
		if c.Score < r.cfg.RetrievalThreshold {
			continue
		}
		kept = append(kept, c)
		top = math.Max(top, c.Score)
	}
	if len(kept) == 0 {
		step.Reason = "no chunk above threshold"
		return nil, step
	}

	gen, err := timeout.Call(ctx, r.cfg.Timeouts.Generation, func(ctx context.Context) (*llm.Generation, error) {
		return r.generator.Generate(ctx, llm.GenerateRequest{Question: query, Chunks: kept, History: r.req.History})
	})
	if err != nil {
		if errors.Is(err, llm.ErrRefusal) || errors.Is(err, llm.ErrEmptyOutput) {
			step.Reason = "generation declined: " + err.Error()
			return nil, step
		}
		return nil, r.reject(ctx, step, BackendGeneration, "generate grounded", err)
	}

	prov := make([]chat.Provenance, len(kept))
	for i, c := range kept {
		prov[i] = chat.Provenance{Kind: chat.ProvenanceChunk, ID: c.ID, Source: c.Source, Score: c.Score}
	}
	step.Accepted = true
	step.Reason = fmt.Sprintf("%d chunks, top %.2f", len(kept), top)
	return &Outcome{
		Strategy:   chat.StrategyRAG,
		Text:       gen.Text,
		Language:   r.answerLanguage(code),
		Confidence: math.Max(r.cfg.RAGFloor, top*gen.Quality),
		Provenance: prov,
	}, step
}

func (r *run) generative(ctx context.Context) (*Outcome, Step) {
	step := Step{State: GenerativeFallback}
	if r.req.Intent.Intent == intent.HumanAgent {
		step.Reason = "human agent requested"
		return nil, step
	}

	query, code, _ := r.pivot(ctx, GenerativeFallback)
	gen, err := timeout.Call(ctx, r.cfg.Timeouts.Generation, func(ctx context.Context) (*llm.Generation, error) {
		return r.generator.Generate(ctx, llm.GenerateRequest{Question: query, History: r.req.History})
	})
	if err != nil {
		if errors.Is(err, llm.ErrRefusal) || errors.Is(err, llm.ErrEmptyOutput) {
			step.Reason = "generation declined: " + err.Error()
			return nil, step
		}
		return nil, r.reject(ctx, step, BackendGeneration, "generate", err)
	}

	step.Accepted = true
	return &Outcome{
		Strategy:   chat.StrategyGenerative,
		Text:       gen.Text,
		Language:   r.answerLanguage(code),
		Confidence: r.cfg.GenerativeConfidence,
		Provenance: []chat.Provenance{},
	}, step
}

func (r *run) handoff() (*Outcome, Step, error) {
	step := Step{State: HumanHandoff}
	code := r.req.Utterance.Language
	msg := strings.TrimSpace(r.cfg.HandoffMessages[code])
	if msg == "" {
		code = r.cfg.Pivot
		msg = strings.TrimSpace(r.cfg.HandoffMessages[code])
	}
	if msg == "" {
		return nil, step, fmt.Errorf("%w: languages %q and %q", ErrHandoffConfiguration, r.req.Utterance.Language, r.cfg.Pivot)
	}
	step.Accepted = true
	return &Outcome{
		Strategy:   chat.StrategyHandoff,
		Text:       msg,
		Language:   code,
		Confidence: 0,
		Provenance: []chat.Provenance{},
	}, step, nil
}

// pivot returns the query text in the pivot language, translating it at most
// once per request. When translation fails the native text is returned with an
// empty code so retrieval searches every language; translated is false then.
func (r *run) pivot(ctx context.Context, s State) (text string, code lang.Code, translated bool) {
	u := r.req.Utterance
	if u.Language == r.cfg.Pivot {
		return u.Canonical, u.Language, true
	}
	if !r.pivoted && strings.TrimSpace(r.req.Pivot) != "" {
		r.pivoted = true
		r.pivotText, r.pivotCode, r.pivotOK = strings.TrimSpace(r.req.Pivot), r.cfg.Pivot, true
	}
	if !r.pivoted {
		r.pivoted = true
		out, err := timeout.Call(ctx, r.cfg.Timeouts.Translation, func(ctx context.Context) (string, error) {
			return r.translator.Translate(ctx, u.Canonical, u.Language, r.cfg.Pivot)
		})
		if err != nil {
			r.reject(ctx, Step{State: s}, BackendTranslation, "translate query", err)
		} else if out = strings.TrimSpace(out); out != "" {
			r.pivotText, r.pivotCode, r.pivotOK = out, r.cfg.Pivot, true
		}
	}
	if !r.pivotOK {
		return u.Canonical, "", false
	}
	return r.pivotText, r.pivotCode, true
}

// answerLanguage is the language a generated answer is written in: that of
// the question it was given.
func (r *run) answerLanguage(code lang.Code) lang.Code {
	if code == "" {
		return r.req.Utterance.Language
	}
	return code
}

// reject logs an absorbed backend error and returns the rejected step.
func (r *run) reject(ctx context.Context, step Step, backend, op string, err error) Step {
	be := backendError(ctx, backend, op, err)
	r.log.Warn().
		Err(be.Err).
		Str("session_id", r.req.SessionID).
		Str("state", step.State.String()).
		Str("backend", backend).
		Bool("timeout", be.Timeout).
		Msg("backend call failed")
	if r.observer != nil {
		r.observer.BackendFailed(step.State, be)
	}
	step.Accepted = false
	step.Reason = be.Error()
	step.Backend = backend
	return step
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
