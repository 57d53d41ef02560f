package implementation

import (
	"context"
	"errors"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/mapper"
	"doc-chat-be/internal/model"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	var m model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by threshold
func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, conversationId uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	// So we compute: 1 - (embedding <=> query_vector) = cosine_similarity
	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("conversation_id = ?", conversationId).
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scoredChunks := make([]*contract.ScoredDocumentChunk, len(results))
	for i, res := range results {
		scoredChunks[i] = &contract.ScoredDocumentChunk{
			Chunk:      r.mapper.ToEntity(&res.DocumentChunk),
			Similarity: res.Similarity,
		}
	}
	return scoredChunks, nil
}
