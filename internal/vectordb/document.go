package vectordb

import (
	"sort"
	"time"
)

// Document is one indexed chunk of a source document.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a chunk.
type DocumentMetadata struct {
	Source      string // path relative to the ingested root
	Title       string
	Language    string
	ChunkIndex  int
	ContentHash string
	LastUpdated time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	Source   *string
	Language *string
}

// Source describes one indexed source document.
type Source struct {
	Source      string    `json:"source"`
	Title       string    `json:"title,omitempty"`
	Language    string    `json:"language"`
	Chunks      int       `json:"chunks"`
	LastUpdated time.Time `json:"last_updated"`
}

// Summarize groups chunks by source, sorted by source name.
func Summarize(docs []Document) []Source {
	bySource := make(map[string]*Source)
	for _, d := range docs {
		md := d.Metadata
		src, ok := bySource[md.Source]
		if !ok {
			src = &Source{Source: md.Source, Title: md.Title, Language: md.Language}
			bySource[md.Source] = src
		}
		src.Chunks++
		if md.LastUpdated.After(src.LastUpdated) {
			src.LastUpdated = md.LastUpdated
		}
	}
	out := make([]Source, 0, len(bySource))
	for _, src := range bySource {
		out = append(out, *src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
