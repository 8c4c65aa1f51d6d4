// Package mcp exposes the assistant to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker answers a message the way the chat API does.
type Asker interface {
	HandleMessage(ctx context.Context, sessionID, text, declared string) (*chat.Response, error)
}

// Catalog yields the current FAQ snapshot.
type Catalog interface {
	Snapshot() *faq.Snapshot
}

// Server wraps an MCP server exposing the ask, search_faqs and
// search_documents tools. store may be nil when no documents are indexed.
type Server struct {
	asker   Asker
	catalog Catalog
	store   vectordb.VectorStore
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(asker Asker, catalog Catalog, store vectordb.VectorStore) *Server {
	s := &Server{
		asker:   asker,
		catalog: catalog,
		store:   store,
	}

	s.mcp = server.NewMCPServer(
		"faqbot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askTool, s.handleAsk)
	s.mcp.AddTool(searchFAQsTool, s.handleSearchFAQs)
	if s.store != nil {
		s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
