package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/session"
	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

// mockAsker implements Asker for testing.
type mockAsker struct {
	err       error
	sessionID string
	language  string
}

func (m *mockAsker) HandleMessage(_ context.Context, sessionID, text, declared string) (*chat.Response, error) {
	m.sessionID, m.language = sessionID, declared
	if m.err != nil {
		return nil, m.err
	}
	return &chat.Response{
		SessionID:   "sess-1",
		Text:        "The admission fee is Rs. 5000.",
		Language:    lang.English,
		Confidence:  0.92,
		Strategy:    chat.StrategyFAQ,
		Provenance:  []chat.Provenance{{Kind: chat.ProvenanceFAQ, ID: "fee-1", Score: 0.92}},
		Suggestions: []string{"How can I pay the tuition fee?"},
	}, nil
}

type staticCatalog struct{ snap *faq.Snapshot }

func (c staticCatalog) Snapshot() *faq.Snapshot { return c.snap }

// mockStore implements vectordb.VectorStore for testing.
type mockStore struct {
	docs []vectordb.Document
}

func (m *mockStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *mockStore) Search(_ context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	var results []vectordb.SearchResult
	for _, doc := range m.docs {
		if filter != nil && filter.Language != nil && doc.Metadata.Language != *filter.Language {
			continue
		}
		results = append(results, vectordb.SearchResult{Document: doc, Similarity: 0.9})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) GetBySource(_ context.Context, source string) ([]vectordb.Document, error) {
	return nil, nil
}
func (m *mockStore) DeleteBySource(_ context.Context, _ string) error { return nil }
func (m *mockStore) Persist(_ context.Context, _ string) error        { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error           { return nil }
func (m *mockStore) Count() int                                       { return len(m.docs) }

func testCatalog() staticCatalog {
	return staticCatalog{faq.NewSnapshot(1, []faq.Entry{
		{ID: "fee-1", Language: lang.English, Category: intent.Fees, Question: "What is the admission fee?", Answer: "Rs. 5000.", Keywords: []string{"admission", "fee"}},
		{ID: "hos-1", Language: lang.English, Category: intent.Hostel, Question: "Is hostel accommodation available?", Answer: "Yes.", Keywords: []string{"hostel"}},
	})}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{askTool, "ask"},
		{searchFAQsTool, "search_faqs"},
		{searchDocumentsTool, "search_documents"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(&mockAsker{}, testCatalog(), nil)
	if srv == nil || srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("answer", func(t *testing.T) {
		asker := &mockAsker{}
		srv := NewServer(asker, testCatalog(), nil)
		result, err := srv.handleAsk(ctx, call(map[string]any{"message": "admission fee?", "session_id": "s9", "language": "en"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := textOf(t, result)
		for _, want := range []string{"Rs. 5000", "Strategy: faq", "fee-1", "How can I pay"} {
			if !strings.Contains(text, want) {
				t.Errorf("answer missing %q:\n%s", want, text)
			}
		}
		if asker.sessionID != "s9" || asker.language != "en" {
			t.Errorf("arguments not passed through: %q %q", asker.sessionID, asker.language)
		}
	})

	t.Run("missing message", func(t *testing.T) {
		srv := NewServer(&mockAsker{}, testCatalog(), nil)
		result, err := srv.handleAsk(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing message")
		}
	})

	t.Run("expired session", func(t *testing.T) {
		srv := NewServer(&mockAsker{err: session.ErrSessionExpired}, testCatalog(), nil)
		result, _ := srv.handleAsk(ctx, call(map[string]any{"message": "hi", "session_id": "old"}))
		if !result.IsError || !strings.Contains(textOf(t, result), "expired") {
			t.Errorf("expected expired-session tool error")
		}
	})
}

func TestHandleSearchFAQs(t *testing.T) {
	srv := NewServer(&mockAsker{}, testCatalog(), nil)
	ctx := context.Background()

	result, err := srv.handleSearchFAQs(ctx, call(map[string]any{"query": "hostel"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "hos-1") || strings.Contains(text, "fee-1") {
		t.Errorf("unexpected search output:\n%s", text)
	}

	result, _ = srv.handleSearchFAQs(ctx, call(map[string]any{"query": "hostel", "language": "xx"}))
	if !result.IsError {
		t.Error("expected error for unsupported language")
	}

	result, _ = srv.handleSearchFAQs(ctx, call(map[string]any{"query": "parking"}))
	if result.IsError || !strings.Contains(textOf(t, result), "No FAQ entries") {
		t.Errorf("expected empty result message")
	}
}

func TestHandleSearchDocuments(t *testing.T) {
	store := &mockStore{docs: []vectordb.Document{
		{ID: "handbook.md#0", Content: "Hostel gates close at 10 pm.", Metadata: vectordb.DocumentMetadata{Source: "handbook.md", Language: "en"}},
		{ID: "handbook.hi.md#0", Content: "छात्रावास के द्वार रात 10 बजे बंद होते हैं।", Metadata: vectordb.DocumentMetadata{Source: "handbook.hi.md", Language: "hi"}},
	}}
	srv := NewServer(&mockAsker{}, testCatalog(), store)
	ctx := context.Background()

	result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"query": "hostel gates", "language": "hi"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "handbook.hi.md") || strings.Contains(text, "Source: handbook.md#") {
		t.Errorf("language filter not applied:\n%s", text)
	}

	empty := NewServer(&mockAsker{}, testCatalog(), &mockStore{})
	result, _ = empty.handleSearchDocuments(ctx, call(map[string]any{"query": "anything"}))
	if result.IsError || !strings.Contains(textOf(t, result), "faqbot ingest") {
		t.Errorf("expected hint to ingest documents")
	}
}
