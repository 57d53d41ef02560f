package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role           string    `gorm:"type:varchar(20);not null"` // "user" or "assistant"
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}
