package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID       `gorm:"type:uuid;not null;index"`
	FileName       string          `gorm:"type:text;not null"` // Source file this chunk came from
	Content        string          `gorm:"type:text;not null"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	Embedding      pgvector.Vector `gorm:"type:vector(1536)"` // OpenAI text-embedding-3-small uses 1536 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
