package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const titleMaxLen = 50

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage generates a short conversation title from the first
// exchange and saves it. Title generation is best-effort: a failed LLM call
// falls back to the truncated first user message.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishTitleMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal title message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: payload.ConversationId})
	if err != nil {
		log.Printf("[ERROR] Failed to get conversation %s: %v", payload.ConversationId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if conversation == nil {
		log.Printf("[ERROR] Conversation not found: %s", payload.ConversationId)
		msg.Ack() // Conversation deleted? Ack.
		return
	}

	firstMessage, err := uow.MessageRepository().FindOne(ctx,
		specification.ByConversationID{ConversationID: payload.ConversationId},
		specification.FilterBy{Field: "role", Value: "user"},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil || firstMessage == nil {
		log.Printf("[ERROR] No first message for conversation %s: %v", payload.ConversationId, err)
		msg.Ack()
		return
	}

	title := cs.generateTitle(ctx, firstMessage.Content)
	if title == "" {
		title = truncateTitle(firstMessage.Content)
	}

	conversation.Title = title
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		log.Printf("[ERROR] Failed to update conversation title %s: %v", payload.ConversationId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Generated title for conversation %s: %s", payload.ConversationId, title)
	msg.Ack()
}

func (cs *consumerService) generateTitle(ctx context.Context, firstUserMessage string) string {
	instruction := "Generate a concise title (max 5 words) for a conversation that starts with the following message. Reply with the title only, no quotes:\n\n" + firstUserMessage

	title, err := cs.llmProvider.Generate(ctx, instruction, llm.WithTemperature(0.3), llm.WithMaxTokens(20))
	if err != nil {
		log.Printf("[WARN] Title generation failed, using fallback: %v", err)
		return ""
	}

	title = strings.Trim(strings.TrimSpace(title), `"'`)
	return truncateTitle(title)
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= titleMaxLen {
		return s
	}
	return string(runes[:titleMaxLen]) + "..."
}
