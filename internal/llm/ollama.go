package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxOllamaBody caps how much of a reply is read.
const maxOllamaBody = 4 << 20

// OllamaProvider answers completions from an Ollama server's /api/chat.
// Deadlines come from the caller's context.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider returns a provider for the server at baseURL.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaParams struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChat struct {
	Model    string       `json:"model"`
	Messages []ollamaTurn `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  ollamaParams `json:"options,omitempty"`
}

type ollamaReply struct {
	Model      string     `json:"model"`
	Message    ollamaTurn `json:"message"`
	DoneReason string     `json:"done_reason"`
	PromptEval int        `json:"prompt_eval_count"`
	Eval       int        `json:"eval_count"`
	Error      string     `json:"error"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := ollamaChat{
		Model:    req.Model,
		Messages: make([]ollamaTurn, len(req.Messages)),
		Options:  ollamaParams{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	if body.Model == "" {
		body.Model = p.model
	}
	for i, m := range req.Messages {
		body.Messages[i] = ollamaTurn{Role: string(m.Role), Content: m.Content}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama completion: encode: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama completion: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama completion: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxOllamaBody))
	if err != nil {
		return nil, fmt.Errorf("ollama completion: read reply: %w", err)
	}

	var reply ollamaReply
	decodeErr := json.Unmarshal(raw, &reply)
	if httpResp.StatusCode != http.StatusOK {
		msg := reply.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &StatusError{Provider: p.Name(), Code: httpResp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ollama completion: decode reply: %w", decodeErr)
	}

	return &CompletionResponse{
		Content:      reply.Message.Content,
		InputTokens:  reply.PromptEval,
		OutputTokens: reply.Eval,
		Model:        reply.Model,
		FinishReason: reply.DoneReason,
	}, nil
}
