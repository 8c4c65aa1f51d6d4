// Package translation converts text between supported languages. Every
// failure wraps ErrUnavailable so callers can degrade instead of failing.
package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/faqbot/internal/lang"
)

// ErrUnavailable means the text could not be translated.
var ErrUnavailable = errors.New("translation unavailable")

// Translator translates text from one language to another.
type Translator interface {
	Translate(ctx context.Context, text string, from, to lang.Code) (string, error)
}

// Unavailable is the Translator used when no backend is configured. Only
// same-language requests succeed.
type Unavailable struct{}

func (Unavailable) Translate(_ context.Context, text string, from, to lang.Code) (string, error) {
	if from == to {
		return text, nil
	}
	return "", fmt.Errorf("%s to %s: %w", from, to, ErrUnavailable)
}

func unavailable(from, to lang.Code, err error) error {
	return fmt.Errorf("%s to %s: %w: %w", from, to, ErrUnavailable, err)
}
