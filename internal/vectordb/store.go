package vectordb

import "context"

// VectorStore stores document chunks and searches them by embedding.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)
	GetBySource(ctx context.Context, source string) ([]Document, error)
	DeleteBySource(ctx context.Context, source string) error
	Persist(ctx context.Context, dir string) error
	Load(ctx context.Context, dir string) error
	Count() int
}
