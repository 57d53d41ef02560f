package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/retriever"
	"doc-chat-be/pkg/rag/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture(store *memStore, embedder *stubEmbedder, provider *stubLLM, publisher *stubPublisher) IChatService {
	factory := &memFactory{s: store}
	log := logger.NewNopLogger()
	ret := retriever.NewRetriever(factory, embedder, 0.1, log)
	pipeline := stream.NewPipeline(provider, log)
	return NewChatService(factory, ret, pipeline, publisher, log)
}

func completionReq(conversationId uuid.UUID, content string) *dto.CompletionRequest {
	return &dto.CompletionRequest{
		ConversationId: conversationId,
		Messages:       []dto.ChatMessage{{Role: "user", Content: content}},
	}
}

func TestCreateConversationDefaultsTitle(t *testing.T) {
	store := &memStore{}
	svc := newChatFixture(store, &stubEmbedder{}, &stubLLM{}, &stubPublisher{})
	userId := uuid.New()

	res, err := svc.CreateConversation(context.Background(), userId, &dto.CreateConversationRequest{})
	require.NoError(t, err)
	require.Len(t, store.conversations, 1)
	assert.Equal(t, res.Id, store.conversations[0].Id)
	assert.Equal(t, DefaultConversationTitle, store.conversations[0].Title)
	assert.Equal(t, userId, store.conversations[0].UserId)
}

func TestGetHistoryUnknownConversation(t *testing.T) {
	svc := newChatFixture(&memStore{}, &stubEmbedder{}, &stubLLM{}, &stubPublisher{})

	_, err := svc.GetHistory(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetHistoryOtherUsersConversationHidden(t *testing.T) {
	store := &memStore{}
	owner := uuid.New()
	conv := seedConversation(store, owner, "theirs")
	svc := newChatFixture(store, &stubEmbedder{}, &stubLLM{}, &stubPublisher{})

	_, err := svc.GetHistory(context.Background(), uuid.New(), conv.Id)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestStreamCompletionPersistsBothTurns(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "my docs")

	provider := &stubLLM{deltas: []llm.Delta{
		{Content: "grounded "},
		{Content: "answer"},
		{Done: true},
	}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, &stubPublisher{})

	var forwarded strings.Builder
	outcome, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "summarize"), func(d string) error {
		forwarded.WriteString(d)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, stream.StateCompleted, outcome.State)
	assert.Equal(t, "grounded answer", forwarded.String())

	require.Len(t, store.messages, 2)
	assert.Equal(t, "user", store.messages[0].Role)
	assert.Equal(t, "summarize", store.messages[0].Content)
	assert.Equal(t, "assistant", store.messages[1].Role)
	assert.Equal(t, "grounded answer", store.messages[1].Content)
}

func TestStreamCompletionFailedTurnKeepsUserMessageOnly(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "my docs")

	provider := &stubLLM{deltas: []llm.Delta{
		{Content: "partial"},
		{Err: context.DeadlineExceeded},
	}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, &stubPublisher{})

	outcome, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "question"), func(string) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, stream.StateFailed, outcome.State)
	require.Len(t, store.messages, 1, "only the user turn is persisted")
	assert.Equal(t, "user", store.messages[0].Role)
}

func TestStreamCompletionSystemPromptUsesRetrievedContext(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "my docs")
	chunk := &entity.DocumentChunk{Id: uuid.New(), ConversationId: conv.Id, Content: "the report covers Q3 revenue"}
	store.chunks = append(store.chunks, chunk)
	store.scored = []*contract.ScoredDocumentChunk{{Chunk: chunk, Similarity: 0.9}}

	provider := &stubLLM{deltas: []llm.Delta{{Content: "ok"}, {Done: true}}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, &stubPublisher{})

	_, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "what revenue?"), func(string) error { return nil })
	require.NoError(t, err)

	require.NotEmpty(t, provider.history)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Contains(t, provider.history[0].Content, "the report covers Q3 revenue")
	assert.Contains(t, provider.history[0].Content, "(1 sections)")
}

func TestStreamCompletionNoDocumentsStillAnswers(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "empty chat")

	provider := &stubLLM{deltas: []llm.Delta{{Content: "hello"}, {Done: true}}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, &stubPublisher{})

	outcome, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "hi"), func(string) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, stream.StateCompleted, outcome.State)
	assert.Contains(t, provider.history[0].Content, "No documents have been found")
}

func TestStreamCompletionQueuesTitleGeneration(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, DefaultConversationTitle)

	publisher := &stubPublisher{}
	provider := &stubLLM{deltas: []llm.Delta{{Content: "answer"}, {Done: true}}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, publisher)

	_, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "first message"), func(string) error { return nil })
	require.NoError(t, err)

	require.Len(t, publisher.payloads, 1)
	var payload dto.PublishTitleMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &payload))
	assert.Equal(t, conv.Id, payload.ConversationId)
}

func TestStreamCompletionTitledConversationNotRequeued(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "Quarterly report questions")

	publisher := &stubPublisher{}
	provider := &stubLLM{deltas: []llm.Delta{{Content: "answer"}, {Done: true}}}
	svc := newChatFixture(store, &stubEmbedder{vector: []float32{0.1}}, provider, publisher)

	_, err := svc.StreamCompletion(context.Background(), userId, completionReq(conv.Id, "follow-up"), func(string) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, publisher.payloads)
}

func TestStreamCompletionRejectsNonUserFinalMessage(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "chat")
	svc := newChatFixture(store, &stubEmbedder{}, &stubLLM{}, &stubPublisher{})

	req := &dto.CompletionRequest{
		ConversationId: conv.Id,
		Messages:       []dto.ChatMessage{{Role: "assistant", Content: "I am not a user"}},
	}
	_, err := svc.StreamCompletion(context.Background(), userId, req, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrMissingUserMessage)
	assert.Empty(t, store.messages)
}
