package mapper

import (
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *MessageMapper) ToEntities(messages []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(messages))
	for i, msg := range messages {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}

func (m *MessageMapper) ToModels(messages []*entity.Message) []*model.Message {
	models := make([]*model.Message, len(messages))
	for i, msg := range messages {
		models[i] = m.ToModel(msg)
	}
	return models
}
