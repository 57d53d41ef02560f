package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	// GenerateBatch embeds several texts in one call where the backend
	// supports it. Results are returned in input order.
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}
