package mapper

import (
	"time"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"

	"gorm.io/gorm"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *ConversationMapper) ToEntities(conversations []*model.Conversation) []*entity.Conversation {
	entities := make([]*entity.Conversation, len(conversations))
	for i, c := range conversations {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ConversationMapper) ToModels(conversations []*entity.Conversation) []*model.Conversation {
	models := make([]*model.Conversation, len(conversations))
	for i, c := range conversations {
		models[i] = m.ToModel(c)
	}
	return models
}
