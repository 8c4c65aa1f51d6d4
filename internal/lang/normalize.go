package lang

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ziadkadry99/faqbot/internal/timeout"
)

// Utterance is a user message after language resolution. It is never mutated.
type Utterance struct {
	Raw       string    `json:"raw"`
	Canonical string    `json:"canonical"`
	Declared  string    `json:"declared,omitempty"`
	Detected  Code      `json:"detected,omitempty"`
	Language  Code      `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Canonicalize applies NFC normalization and collapses all whitespace runs to a
// single space. It is idempotent.
func Canonicalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Normalizer resolves the language of an utterance.
type Normalizer struct {
	supported map[Code]bool
	detector  Detector
	fallback  ScriptDetector
	timeout   time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDetector sets the detection backend consulted when no supported
// language is declared. The script heuristic is used if it fails.
func WithDetector(d Detector, limit time.Duration) NormalizerOption {
	return func(n *Normalizer) {
		n.detector = d
		n.timeout = limit
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) NormalizerOption {
	return func(n *Normalizer) { n.log = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a Normalizer accepting the given languages. def is
// used by the script heuristic when no script dominates.
func NewNormalizer(supported []Code, def Code, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		supported: make(map[Code]bool, len(supported)),
		fallback:  ScriptDetector{Default: def},
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, c := range supported {
		n.supported[c] = true
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Supported reports whether code is accepted.
func (n *Normalizer) Supported(code Code) bool {
	return n.supported[code]
}

// Normalize canonicalizes text and resolves its language. A supported declared
// language is trusted as is; otherwise the language is detected.
func (n *Normalizer) Normalize(ctx context.Context, text, declared string) (Utterance, error) {
	u := Utterance{
		Raw:       text,
		Canonical: Canonicalize(text),
		Declared:  declared,
		Timestamp: n.now(),
	}
	if u.Canonical == "" {
		return u, ErrEmptyUtterance
	}

	if declared != "" {
		if code, err := ParseCode(declared); err == nil && n.supported[code] {
			u.Language = code
			return u, nil
		}
		n.log.Debug().Str("declared", declared).Msg("declared language not supported, detecting")
	}

	u.Detected = n.detect(ctx, u.Canonical)
	if !n.supported[u.Detected] {
		return u, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, u.Detected)
	}
	u.Language = u.Detected
	return u, nil
}

func (n *Normalizer) detect(ctx context.Context, text string) Code {
	if n.detector == nil {
		return n.fallback.detect(text)
	}

	code, err := timeout.Call(ctx, n.timeout, func(ctx context.Context) (Code, error) {
		return n.detector.Detect(ctx, text)
	})
	if err == nil {
		return code
	}
	n.log.Warn().Err(err).Str("backend", "detection").Msg("language detection failed, using script heuristic")
	return n.fallback.detect(text)
}
