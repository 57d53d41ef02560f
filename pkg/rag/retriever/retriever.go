// Package retriever ranks stored document chunks against a chat query.
// Retrieval degrades rather than fails: a broken embedding backend or an
// empty ranking falls back to handing the model every stored chunk.
package retriever

import (
	"context"
	"strings"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/embedding"

	"github.com/google/uuid"
)

type Mode string

const (
	// ModeSemantic means ranked chunks above the similarity threshold.
	ModeSemantic Mode = "semantic"
	// ModeFallbackAll means every stored chunk, used when ranking found
	// nothing or the embedding call failed.
	ModeFallbackAll Mode = "fallback-all"
	// ModeNone means the conversation has no documents at all.
	ModeNone Mode = "none"
)

const (
	// fetchLimit caps how many chunk records are loaded per retrieval.
	fetchLimit = 100
	topK       = 15
)

type Result struct {
	Context    string
	ChunkCount int
	Mode       Mode
}

type Retriever struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	threshold  float64
	log        logger.ILogger
}

func NewRetriever(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, threshold float64, log logger.ILogger) *Retriever {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &Retriever{
		uowFactory: uowFactory,
		embedder:   embedder,
		threshold:  threshold,
		log:        log,
	}
}

// Retrieve returns context text for answering queryText within a
// conversation. It never returns an error for embedding failures; those
// degrade to ModeFallbackAll. Only storage failures are surfaced.
func (r *Retriever) Retrieve(ctx context.Context, conversationId uuid.UUID, queryText string) (*Result, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	chunkRepo := uow.DocumentChunkRepository()

	allChunks, err := chunkRepo.FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: fetchLimit},
	)
	if err != nil {
		return nil, err
	}

	if len(allChunks) == 0 {
		return &Result{Mode: ModeNone}, nil
	}

	embedRes, err := r.embedder.Generate(ctx, queryText, "RETRIEVAL_QUERY")
	if err != nil {
		r.log.Warn("retriever", "embedding failed, falling back to all chunks", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
		return r.fallbackAll(allChunks), nil
	}

	scored, err := chunkRepo.SearchSimilarWithScore(ctx, embedRes.Embedding.Values, topK, conversationId, r.threshold)
	if err != nil {
		r.log.Warn("retriever", "similarity search failed, falling back to all chunks", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
		return r.fallbackAll(allChunks), nil
	}

	if len(scored) == 0 {
		r.log.Info("retriever", "no chunks above threshold, falling back to all chunks", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"threshold":       r.threshold,
		})
		return r.fallbackAll(allChunks), nil
	}

	contents := make([]string, len(scored))
	for i, s := range scored {
		contents[i] = s.Chunk.Content
	}

	return &Result{
		Context:    strings.Join(contents, "\n\n"),
		ChunkCount: len(scored),
		Mode:       ModeSemantic,
	}, nil
}

func (r *Retriever) fallbackAll(chunks []*entity.DocumentChunk) *Result {
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	return &Result{
		Context:    strings.Join(contents, "\n\n"),
		ChunkCount: len(chunks),
		Mode:       ModeFallbackAll,
	}
}
