package entity

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;index"`
	FileName       string
	FilePath       string
	FileSize       int64
	FileType       string
	CreatedAt      time.Time
}
