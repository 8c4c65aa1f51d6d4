package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/llm"
)

type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type countingTranslator struct {
	calls int
	err   error
}

func (c *countingTranslator) Translate(_ context.Context, text string, from, to lang.Code) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return string(to) + ":" + text, nil
}

func TestUnavailable(t *testing.T) {
	var tr Unavailable
	out, err := tr.Translate(context.Background(), "hello", lang.English, lang.English)
	if err != nil || out != "hello" {
		t.Errorf("same-language should be identity, got %q, %v", out, err)
	}
	if _, err := tr.Translate(context.Background(), "hello", lang.English, lang.Hindi); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestLLMTranslatorTranslate(t *testing.T) {
	p := &fakeProvider{reply: "  फीस कितनी है?\n"}
	tr := NewLLMTranslator(p, "m")

	out, err := tr.Translate(context.Background(), "What is the fee?", lang.English, lang.Hindi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "फीस कितनी है?" {
		t.Errorf("expected trimmed translation, got %q", out)
	}
	sys := p.prompts[0].Messages[0].Content
	if !strings.Contains(sys, "English") || !strings.Contains(sys, "Hindi") {
		t.Errorf("prompt should name both languages: %q", sys)
	}
}

func TestLLMTranslatorSameLanguageSkipsBackend(t *testing.T) {
	p := &fakeProvider{reply: "x"}
	tr := NewLLMTranslator(p, "m")
	out, err := tr.Translate(context.Background(), "hello", lang.English, lang.English)
	if err != nil || out != "hello" {
		t.Errorf("expected identity, got %q, %v", out, err)
	}
	if p.calls() != 0 {
		t.Errorf("backend called %d times for same-language translation", p.calls())
	}
}

func TestLLMTranslatorFailures(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
	}{
		{"backend error", &fakeProvider{err: errors.New("connection refused")}},
		{"empty reply", &fakeProvider{reply: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewLLMTranslator(tt.p, "m")
			if _, err := tr.Translate(context.Background(), "hello", lang.English, lang.Tamil); !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestLLMTranslatorDetect(t *testing.T) {
	tests := []struct {
		reply   string
		want    lang.Code
		wantErr bool
	}{
		{"hi", lang.Hindi, false},
		{" TA.\n", lang.Tamil, false},
		{"bn (Bengali)", lang.Bengali, false},
		{"fr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		tr := NewLLMTranslator(&fakeProvider{reply: tt.reply}, "m")
		got, err := tr.Detect(context.Background(), "text")
		if (err != nil) != tt.wantErr {
			t.Errorf("reply %q: err = %v, wantErr %v", tt.reply, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("reply %q: got %q, want %q", tt.reply, got, tt.want)
		}
	}
}

func TestCachedMemoizes(t *testing.T) {
	next := &countingTranslator{}
	c, err := NewCached(next, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		out, err := c.Translate(ctx, "fees", lang.English, lang.Hindi)
		if err != nil || out != "hi:fees" {
			t.Fatalf("unexpected result %q, %v", out, err)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", next.calls)
	}
	if _, err := c.Translate(ctx, "fees", lang.English, lang.Tamil); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 || c.Len() != 2 {
		t.Errorf("distinct target must miss the cache: calls=%d len=%d", next.calls, c.Len())
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	next := &countingTranslator{err: ErrUnavailable}
	c, err := NewCached(next, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := c.Translate(context.Background(), "x", lang.English, lang.Hindi); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	if next.calls != 2 || c.Len() != 0 {
		t.Errorf("failure was cached: calls=%d len=%d", next.calls, c.Len())
	}
}

func TestCachedRejectsBadSize(t *testing.T) {
	if _, err := NewCached(Unavailable{}, 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}
