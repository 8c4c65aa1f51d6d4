package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/faqbot/internal/chat"
)

var (
	// ErrRefusal means the model declined to answer from what it was given.
	ErrRefusal = errors.New("model declined to answer")
	// ErrEmptyOutput means the model returned no usable text.
	ErrEmptyOutput = errors.New("model returned empty output")
)

// NoAnswer is the marker the model is told to emit when it cannot answer.
const NoAnswer = "NO_ANSWER"

const systemPrompt = `You are a helpful campus assistant for a college or university.
You answer student questions about admissions, fees, scholarships, timetables,
exams, documents, hostels, the library and other campus topics.

Guidelines:
- Be friendly, concise and accurate.
- Answer in the language of the question.
- Keep answers under 200 words unless more detail is needed.
- Use bullet points for lists when appropriate.
- Never invent dates, amounts or contact details.`

const groundedInstructions = `Answer the question using ONLY the numbered document excerpts below.
If the excerpts do not contain the answer, reply with exactly ` + NoAnswer + ` and nothing else.

Excerpts:
%s`

const openInstructions = `Answer from the conversation so far and general knowledge of how colleges work.
If the question is outside campus topics or you cannot give a useful answer,
reply with exactly ` + NoAnswer + ` and nothing else.`

// Exchange is one earlier user/assistant pair given to the model as context.
type Exchange struct {
	User      string
	Assistant string
}

// GenerateRequest describes one answer to produce. With Chunks the answer
// is grounded in them; without, only History is available.
type GenerateRequest struct {
	Question string
	Chunks   []chat.Chunk
	History  []Exchange
}

// Generation is an accepted model answer.
type Generation struct {
	Text         string
	Quality      float64
	FinishReason string
	Model        string
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator turns GenerateRequests into prompts and validates the answers.
type Generator struct {
	provider Provider
	opts     GeneratorOptions
}

// NewGenerator creates a Generator over provider.
func NewGenerator(provider Provider, opts GeneratorOptions) *Generator {
	return &Generator{provider: provider, opts: opts}
}

// Name returns the underlying provider name.
func (g *Generator) Name() string {
	return g.provider.Name()
}

// Generate produces an answer. It returns ErrRefusal when the model emits
// the no-answer marker and ErrEmptyOutput when it returns nothing.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	resp, err := g.provider.Complete(ctx, CompletionRequest{
		Model:       g.opts.Model,
		Messages:    BuildMessages(req),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", g.provider.Name(), err)
	}

	text := strings.TrimSpace(resp.Content)
	switch {
	case text == "":
		return nil, ErrEmptyOutput
	case isRefusal(text):
		return nil, ErrRefusal
	}

	return &Generation{
		Text:         text,
		Quality:      Quality(resp.FinishReason),
		FinishReason: resp.FinishReason,
		Model:        resp.Model,
	}, nil
}

// BuildMessages renders the chat messages for req.
func BuildMessages(req GenerateRequest) []Message {
	instructions := openInstructions
	if len(req.Chunks) > 0 {
		instructions = fmt.Sprintf(groundedInstructions, formatChunks(req.Chunks))
	}

	msgs := make([]Message, 0, 2+2*len(req.History))
	msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt + "\n\n" + instructions})
	for _, ex := range req.History {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: ex.User},
			Message{Role: RoleAssistant, Content: ex.Assistant},
		)
	}
	return append(msgs, Message{Role: RoleUser, Content: req.Question})
}

func formatChunks(chunks []chat.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] (%s", i+1, c.Source)
		if c.Title != "" {
			fmt.Fprintf(&b, ", %s", c.Title)
		}
		fmt.Fprintf(&b, ")\n%s\n\n", strings.TrimSpace(c.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

func isRefusal(text string) bool {
	upper := strings.ToUpper(strings.Trim(text, " .\"'`*"))
	return strings.HasPrefix(upper, NoAnswer)
}

// Quality maps a finish reason to a multiplier in (0, 1]. Truncated
// answers are trusted less.
func Quality(finishReason string) float64 {
	switch finishReason {
	case FinishStop, "":
		return 1
	case FinishLength:
		return 0.6
	default:
		return 0.8
	}
}
