package mapper

import (
	"encoding/json"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		// Malformed metadata is tolerated: the chunk content is still usable.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.DocumentChunk{
		Id:             c.Id,
		ConversationId: c.ConversationId,
		FileName:       c.FileName,
		Content:        c.Content,
		Metadata:       metadata,
		Embedding:      c.Embedding.Slice(),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata datatypes.JSON
	if c.Metadata != nil {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return &model.DocumentChunk{
		Id:             c.Id,
		ConversationId: c.ConversationId,
		FileName:       c.FileName,
		Content:        c.Content,
		Metadata:       metadata,
		Embedding:      pgvector.NewVector(c.Embedding),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *DocumentChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
