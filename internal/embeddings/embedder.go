package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// New creates an Embedder for provider ("openai" or "ollama"). OpenAI reads
// OPENAI_API_KEY and OPENAI_BASE_URL; Ollama reads OLLAMA_HOST.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return NewOpenAIEmbedder(apiKey, os.Getenv("OPENAI_BASE_URL"), OpenAIModel(model)), nil
	case "ollama":
		return NewOllamaEmbedder(model, ollamaDimensions(model), os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

func ollamaDimensions(model string) int {
	switch model {
	case "mxbai-embed-large", "bge-m3":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 768
	}
}
