package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/llm"
)

const translatePrompt = `You are a translation engine. Translate the user's message from %s to %s.
Keep names, numbers, amounts, dates, email addresses and URLs unchanged.
Reply with the translation only, without quotes or explanations.`

const detectPrompt = `Identify the language of the user's message.
Reply with only its two-letter ISO 639-1 code, for example: en, hi, ta, te, bn, mr.`

// LLMTranslator translates and detects languages through a chat model.
type LLMTranslator struct {
	provider llm.Provider
	model    string
}

// NewLLMTranslator creates a translator over provider.
func NewLLMTranslator(provider llm.Provider, model string) *LLMTranslator {
	return &LLMTranslator{provider: provider, model: model}
}

// Translate implements Translator.
func (t *LLMTranslator) Translate(ctx context.Context, text string, from, to lang.Code) (string, error) {
	if from == to || strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := t.provider.Complete(ctx, llm.CompletionRequest{
		Model: t.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(translatePrompt, name(from), name(to))},
			{Role: llm.RoleUser, Content: text},
		},
	})
	if err != nil {
		return "", unavailable(from, to, err)
	}

	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", unavailable(from, to, llm.ErrEmptyOutput)
	}
	return out, nil
}

// Detect implements lang.Detector.
func (t *LLMTranslator) Detect(ctx context.Context, text string) (lang.Code, error) {
	resp, err := t.provider.Complete(ctx, llm.CompletionRequest{
		Model: t.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: detectPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		MaxTokens: 8,
	})
	if err != nil {
		return "", fmt.Errorf("detecting language: %w", err)
	}
	answer := strings.Trim(strings.TrimSpace(resp.Content), ".\"'`")
	if fields := strings.Fields(answer); len(fields) > 0 {
		answer = fields[0]
	}
	return lang.ParseCode(answer)
}

func name(code lang.Code) string {
	if info, ok := lang.Lookup(code); ok {
		return info.Name
	}
	return string(code)
}
