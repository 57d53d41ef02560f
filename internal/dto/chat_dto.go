package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type CreateConversationResponse struct {
	Id uuid.UUID `json:"id"`
}

type ConversationResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is a single turn of the client-supplied history for a completion.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type CompletionRequest struct {
	ConversationId uuid.UUID     `json:"conversationId" validate:"required"`
	Messages       []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// PublishTitleMessage asks the consumer to generate a conversation title
// from its first exchange.
type PublishTitleMessage struct {
	ConversationId uuid.UUID `json:"conversation_id"`
}
