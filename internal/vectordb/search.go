package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity)
		md := r.Document.Metadata
		if md.Source != "" {
			fmt.Fprintf(&sb, "Source: %s#%d\n", md.Source, md.ChunkIndex)
		}
		if md.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", md.Title)
		}
		if md.Language != "" {
			fmt.Fprintf(&sb, "Language: %s\n", md.Language)
		}
		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
