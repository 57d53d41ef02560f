package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentChunk wraps DocumentChunk with its similarity score
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks with their similarity scores, filtered by threshold
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, conversationId uuid.UUID, threshold float64) ([]*ScoredDocumentChunk, error)
}
