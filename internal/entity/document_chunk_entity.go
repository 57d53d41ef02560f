package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;index"`
	FileName       string
	Content        string
	Metadata       map[string]interface{}
	Embedding      []float32
	CreatedAt      time.Time
}
