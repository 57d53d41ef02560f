package model

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName       string    `gorm:"type:text;not null"` // Original name as uploaded
	FilePath       string    `gorm:"type:text;not null"` // Object storage key
	FileSize       int64     `gorm:"not null"`
	FileType       string    `gorm:"type:varchar(100);not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
