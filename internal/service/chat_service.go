package service

import (
	"context"
	"encoding/json"
	"time"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/prompt"
	"doc-chat-be/pkg/rag/retriever"
	"doc-chat-be/pkg/rag/stream"

	"github.com/google/uuid"
)

// DefaultConversationTitle is used until a real title is generated from the
// first exchange.
const DefaultConversationTitle = "New Chat"

type IChatService interface {
	CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.MessageResponse, error)
	// StreamCompletion runs one answer turn, forwarding deltas to sink as
	// they arrive. The returned outcome reports how the turn ended.
	StreamCompletion(ctx context.Context, userId uuid.UUID, req *dto.CompletionRequest, sink stream.DeltaSink) (*stream.Outcome, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	retriever        *retriever.Retriever
	pipeline         *stream.Pipeline
	publisherService IPublisherService
	log              logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	ret *retriever.Retriever,
	pipeline *stream.Pipeline,
	publisherService IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		retriever:        ret,
		pipeline:         pipeline,
		publisherService: publisherService,
		log:              log,
	}
}

func (s *chatService) CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	title := req.Title
	if title == "" {
		title = DefaultConversationTitle
	}

	conversation := entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Create(ctx, &conversation); err != nil {
		return nil, err
	}

	return &dto.CreateConversationResponse{Id: conversation.Id}, nil
}

func (s *chatService) GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ConversationResponse, len(conversations))
	for i, c := range conversations {
		responses[i] = &dto.ConversationResponse{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = &dto.MessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) StreamCompletion(ctx context.Context, userId uuid.UUID, req *dto.CompletionRequest, sink stream.DeltaSink) (*stream.Outcome, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: req.ConversationId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	if len(req.Messages) == 0 {
		return nil, ErrMissingUserMessage
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil, ErrMissingUserMessage
	}

	// The user's turn is saved before generation so the transcript survives
	// provider failures.
	userMessage := entity.Message{
		Id:             uuid.New(),
		ConversationId: req.ConversationId,
		Role:           "user",
		Content:        last.Content,
		CreatedAt:      time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	retrieval, err := s.retriever.Retrieve(ctx, req.ConversationId, last.Content)
	if err != nil {
		return nil, err
	}

	s.log.Info("chat", "context retrieved", map[string]interface{}{
		"conversation_id": req.ConversationId.String(),
		"mode":            string(retrieval.Mode),
		"chunk_count":     retrieval.ChunkCount,
	})

	history := make([]llm.Message, 0, len(req.Messages)+1)
	history = append(history, llm.Message{
		Role:    "system",
		Content: prompt.Compose(retrieval.Context, retrieval.ChunkCount),
	})
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	outcome, err := s.pipeline.Run(ctx, history, sink)
	if err != nil {
		return nil, err
	}

	if outcome.State == stream.StateCompleted {
		assistantMessage := entity.Message{
			Id:             uuid.New(),
			ConversationId: req.ConversationId,
			Role:           "assistant",
			Content:        outcome.Content,
			CreatedAt:      time.Now(),
		}
		if err := uow.MessageRepository().Create(ctx, &assistantMessage); err != nil {
			return nil, err
		}

		s.maybeRequestTitle(ctx, conversation)
	}

	return outcome, nil
}

// maybeRequestTitle queues async title generation after the first completed
// exchange. Failure to enqueue is not fatal to the turn.
func (s *chatService) maybeRequestTitle(ctx context.Context, conversation *entity.Conversation) {
	if conversation.Title != "" && conversation.Title != DefaultConversationTitle {
		return
	}

	payload, err := json.Marshal(dto.PublishTitleMessage{ConversationId: conversation.Id})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("chat", "failed to queue title generation", map[string]interface{}{
			"conversation_id": conversation.Id.String(),
			"error":           err.Error(),
		})
	}
}
