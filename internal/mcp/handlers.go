package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/session"
	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}
	sessionID := request.GetString("session_id", "")
	language := request.GetString("language", "")

	resp, err := s.asker.HandleMessage(ctx, sessionID, message, language)
	switch {
	case errors.Is(err, lang.ErrUnsupportedLanguage), errors.Is(err, lang.ErrEmptyUtterance):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, session.ErrSessionExpired):
		return mcp.NewToolResultError("session expired; omit session_id to start a new one"), nil
	case errors.Is(err, session.ErrTooManySessions):
		return mcp.NewToolResultError("too many active sessions; try again later"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatResponse(resp)), nil
}

func (s *Server) handleSearchFAQs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	code, err := lang.ParseCode(request.GetString("language", string(lang.English)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	entries := s.catalog.Snapshot().Search(query, code, limit)
	if len(entries) == 0 {
		return mcp.NewToolResultText("No FAQ entries found."), nil
	}
	return mcp.NewToolResultText(formatEntries(entries)), nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	var filter *vectordb.SearchFilter
	if l := request.GetString("language", ""); l != "" {
		code, err := lang.ParseCode(l)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c := string(code)
		filter = &vectordb.SearchFilter{Language: &c}
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. Run `faqbot ingest` to index documents."), nil
	}
	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// formatResponse renders an answer with its metadata for an agent.
func formatResponse(resp *chat.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Text)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Session: %s\n", resp.SessionID)
	fmt.Fprintf(&sb, "Strategy: %s (confidence %.2f)\n", resp.Strategy, resp.Confidence)
	fmt.Fprintf(&sb, "Language: %s\n", resp.Language)
	if resp.Degraded {
		fmt.Fprintf(&sb, "Degraded: %s\n", resp.DegradedReason)
	}
	for _, p := range resp.Provenance {
		src := p.ID
		if p.Source != "" && p.Kind == chat.ProvenanceChunk {
			src = p.Source + " (" + p.ID + ")"
		}
		fmt.Fprintf(&sb, "Source: %s %s\n", p.Kind, src)
	}
	if len(resp.Suggestions) > 0 {
		sb.WriteString("Related questions:\n")
		for _, q := range resp.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}
	return sb.String()
}

func formatEntries(entries []faq.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d FAQ entr%s:\n", len(entries), plural(len(entries)))
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n[%s] (%s, %s)\nQ: %s\nA: %s\n", e.ID, e.Category, e.Language, e.Question, e.Answer)
	}
	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
