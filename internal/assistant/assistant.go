// Package assistant runs the query pipeline for one message: language
// resolution, session context, intent classification, routing, composition
// and recording of the turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/convlog"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/llm"
	"github.com/ziadkadry99/faqbot/internal/router"
	"github.com/ziadkadry99/faqbot/internal/session"
	"github.com/ziadkadry99/faqbot/internal/timeout"
	"github.com/ziadkadry99/faqbot/internal/translation"
)

// DefaultHistoryTurns is how many earlier exchanges are given to generation.
const DefaultHistoryTurns = 4

// Normalizer resolves the language of raw text.
type Normalizer interface {
	Normalize(ctx context.Context, text, declared string) (lang.Utterance, error)
}

// Classifier labels an utterance given the intents of earlier turns.
type Classifier interface {
	Classify(text string, history []intent.Intent) intent.Result
}

// Router picks the strategy that answers a request.
type Router interface {
	Route(ctx context.Context, req router.Request) (*router.Outcome, error)
}

// Composer turns an outcome into the user-facing response.
type Composer interface {
	Compose(ctx context.Context, out *router.Outcome, u lang.Utterance, res intent.Result) chat.Response
}

// Observer receives every response that was returned to a caller.
type Observer interface {
	ObserveResponse(resp chat.Response, elapsed time.Duration)
}

// Deps are the pipeline stages.
type Deps struct {
	Normalizer Normalizer
	Sessions   *session.Store
	Classifier Classifier
	Translator translation.Translator
	Router     Router
	Composer   Composer
	Sink       convlog.Sink
	Observer   Observer
}

// Options configures an Assistant.
type Options struct {
	Languages          []lang.Code
	Pivot              lang.Code
	TranslationTimeout time.Duration
	HistoryTurns       int
	Logger             zerolog.Logger
	Clock              func() time.Time
}

// Assistant is safe for concurrent use. Messages for one session are
// processed one at a time; different sessions proceed in parallel.
type Assistant struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

// New creates an Assistant.
func New(deps Deps, opts Options) (*Assistant, error) {
	if deps.Normalizer == nil || deps.Sessions == nil || deps.Classifier == nil || deps.Router == nil || deps.Composer == nil {
		return nil, errors.New("assistant: normalizer, sessions, classifier, router and composer are required")
	}
	if deps.Translator == nil {
		deps.Translator = translation.Unavailable{}
	}
	if deps.Sink == nil {
		deps.Sink = convlog.Nop{}
	}
	if opts.Pivot == "" {
		opts.Pivot = lang.English
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Assistant{deps: deps, opts: opts, log: opts.Logger}, nil
}

// HandleMessage answers one user message. An empty sessionID starts a new
// session. Returned errors are lang.ErrUnsupportedLanguage,
// lang.ErrEmptyUtterance, session.ErrSessionExpired, session.ErrTooManySessions,
// router.ErrHandoffConfiguration or the context's error; backend failures
// are absorbed into the response.
func (a *Assistant) HandleMessage(ctx context.Context, sessionID, text, declared string) (*chat.Response, error) {
	start := a.opts.Clock()

	u, err := a.deps.Normalizer.Normalize(ctx, text, declared)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	h, err := a.deps.Sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	sess := h.Session()

	res, pivot := a.classify(ctx, sessionID, u, sess.Intents())
	slots := intent.ExtractSlots(u.Canonical)

	out, err := a.deps.Router.Route(ctx, router.Request{
		SessionID: sessionID,
		Utterance: u,
		Intent:    res,
		History:   exchanges(sess.Turns, a.opts.HistoryTurns),
		Pivot:     pivot,
	})
	if err != nil {
		if errors.Is(err, router.ErrHandoffConfiguration) {
			a.log.Error().Err(err).Str("session_id", sessionID).Msg("no handoff message available")
		}
		return nil, err
	}

	resp := a.deps.Composer.Compose(ctx, out, u, res)
	resp.SessionID = sessionID

	// A caller that went away gets nothing recorded.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	turn, err := h.Append(session.Turn{
		Utterance:        u,
		Intent:           res.Intent,
		IntentConfidence: res.Confidence,
		Strategy:         resp.Strategy,
		Response:         resp.Text,
		Language:         resp.Language,
		Confidence:       resp.Confidence,
		Provenance:       resp.Provenance,
		Degraded:         resp.Degraded,
		Slots:            slots,
	})
	if err != nil {
		return nil, err
	}
	resp.TurnID = turn.ID

	a.deps.Sink.Record(sessionID, turn)
	elapsed := a.opts.Clock().Sub(start)
	if a.deps.Observer != nil {
		a.deps.Observer.ObserveResponse(resp, elapsed)
	}

	ev := a.log.Info()
	if resp.Degraded {
		ev = a.log.Warn().Str("degraded_reason", resp.DegradedReason)
	}
	ev.Str("session_id", sessionID).
		Int64("seq", turn.Seq).
		Str("language", string(u.Language)).
		Str("intent", string(res.Intent)).
		Str("strategy", string(resp.Strategy)).
		Float64("confidence", resp.Confidence).
		Dur("elapsed", elapsed).
		Msg("message handled")
	return &resp, nil
}

// classify labels the native text and, when that yields unknown for a
// non-pivot language, retries on its pivot translation. The translation is
// returned so routing does not request it again.
func (a *Assistant) classify(ctx context.Context, sessionID string, u lang.Utterance, history []intent.Intent) (intent.Result, string) {
	res := a.deps.Classifier.Classify(u.Canonical, history)
	if res.Intent != intent.Unknown || u.Language == a.opts.Pivot {
		return res, ""
	}

	text, err := timeout.Call(ctx, a.opts.TranslationTimeout, func(ctx context.Context) (string, error) {
		return a.deps.Translator.Translate(ctx, u.Canonical, u.Language, a.opts.Pivot)
	})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		a.log.Debug().Err(err).Str("session_id", sessionID).Str("backend", router.BackendTranslation).
			Msg("pivot classification skipped")
		return res, ""
	}
	if pivoted := a.deps.Classifier.Classify(text, history); pivoted.Intent != intent.Unknown {
		return pivoted, text
	}
	return res, text
}

// exchanges converts the newest n turns into generation context.
func exchanges(turns []session.Turn, n int) []llm.Exchange {
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]llm.Exchange, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Exchange{User: t.Utterance.Canonical, Assistant: t.Response})
	}
	return out
}

// History returns a copy of a session.
func (a *Assistant) History(ctx context.Context, sessionID string) (session.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return session.Session{}, fmt.Errorf("session id is required")
	}
	return a.deps.Sessions.GetSession(ctx, sessionID)
}

// EndSession expires a session; later messages with its id fail with
// session.ErrSessionExpired.
func (a *Assistant) EndSession(ctx context.Context, sessionID string) error {
	return a.deps.Sessions.Expire(ctx, sessionID)
}

// Languages returns the supported languages.
func (a *Assistant) Languages() []lang.Info {
	out := make([]lang.Info, 0, len(a.opts.Languages))
	for _, code := range a.opts.Languages {
		if info, ok := lang.Lookup(code); ok {
			out = append(out, info)
		} else {
			out = append(out, lang.Info{Code: code, Name: string(code)})
		}
	}
	return out
}
