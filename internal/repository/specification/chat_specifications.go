package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
