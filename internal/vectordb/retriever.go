package vectordb

import (
	"context"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// Retriever answers chunk searches for the document retrieval stage.
type Retriever struct {
	store VectorStore
}

// NewRetriever creates a Retriever over store.
func NewRetriever(store VectorStore) *Retriever {
	return &Retriever{store: store}
}

// Search returns up to k chunks in language code, most similar first.
// Scores are cosine similarities clamped to [0, 1]. An empty code searches
// every language.
func (r *Retriever) Search(ctx context.Context, query string, code lang.Code, k int) ([]chat.Chunk, error) {
	var filter *SearchFilter
	if code != "" {
		c := string(code)
		filter = &SearchFilter{Language: &c}
	}

	results, err := r.store.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}

	chunks := make([]chat.Chunk, 0, len(results))
	for _, res := range results {
		md := res.Document.Metadata
		chunks = append(chunks, chat.Chunk{
			ID:       res.Document.ID,
			Source:   md.Source,
			Title:    md.Title,
			Content:  res.Document.Content,
			Language: lang.Code(md.Language),
			Score:    clamp01(float64(res.Similarity)),
		})
	}
	return chunks, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
