package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askTool defines the ask MCP tool.
var askTool = mcp.NewTool("ask",
	mcp.WithDescription("Ask the campus assistant a question in any supported language. Returns the answer, the strategy that produced it and its sources."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The user's question"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session to continue; omit to start a new one"),
	),
	mcp.WithString("language",
		mcp.Description("Language code of the question (en, hi, ta, te, bn, mr); detected when omitted"),
	),
)

// searchFAQsTool defines the search_faqs MCP tool.
var searchFAQsTool = mcp.NewTool("search_faqs",
	mcp.WithDescription("Search the curated FAQ entries by keyword."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Keywords to look for"),
	),
	mcp.WithString("language",
		mcp.Description("Language code of the entries (default en)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 5)"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantic search over the indexed handbook and policy documents."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithString("language",
		mcp.Description("Only return chunks in this language"),
	),
)
