package service

import (
	"context"
	"sort"
	"time"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. Specifications are not
// interpreted generically; the fakes filter on the few cases the services
// actually use.

type memStore struct {
	conversations []*entity.Conversation
	messages      []*entity.Message
	files         []*entity.UploadedFile
	chunks        []*entity.DocumentChunk

	scored    []*contract.ScoredDocumentChunk
	searchErr error

	conversationErr error
	messageErr      error
	fileErr         error
	chunkErr        error
}

type memConversationRepo struct{ s *memStore }

func (r *memConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	if r.s.conversationErr != nil {
		return r.s.conversationErr
	}
	r.s.conversations = append(r.s.conversations, c)
	return nil
}

func (r *memConversationRepo) Update(ctx context.Context, c *entity.Conversation) error {
	for i, existing := range r.s.conversations {
		if existing.Id == c.Id {
			r.s.conversations[i] = c
			return nil
		}
	}
	return nil
}

func (r *memConversationRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	if r.s.conversationErr != nil {
		return nil, r.s.conversationErr
	}
	byID, byOwner := parseSpecs(specs)
	for _, c := range r.s.conversations {
		if byID != nil && c.Id != *byID {
			continue
		}
		if byOwner != nil && c.UserId != *byOwner {
			continue
		}
		return c, nil
	}
	return nil, nil
}

func (r *memConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	_, byOwner := parseSpecs(specs)
	var out []*entity.Conversation
	for _, c := range r.s.conversations {
		if byOwner != nil && c.UserId != *byOwner {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memConversationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.conversations)), nil
}

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	if r.s.messageErr != nil {
		return r.s.messageErr
	}
	r.s.messages = append(r.s.messages, m)
	return nil
}

func (r *memMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

func (r *memMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	byConv := parseConversationSpec(specs)
	role := parseRoleFilter(specs)
	var out []*entity.Message
	for _, m := range r.s.messages {
		if byConv != nil && m.ConversationId != *byConv {
			continue
		}
		if role != "" && m.Role != role {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	return int64(len(msgs)), nil
}

type memFileRepo struct{ s *memStore }

func (r *memFileRepo) Create(ctx context.Context, f *entity.UploadedFile) error {
	if r.s.fileErr != nil {
		return r.s.fileErr
	}
	r.s.files = append(r.s.files, f)
	return nil
}

func (r *memFileRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UploadedFile, error) {
	return nil, nil
}

func (r *memFileRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error) {
	return r.s.files, nil
}

func (r *memFileRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.files)), nil
}

type memChunkRepo struct{ s *memStore }

func (r *memChunkRepo) Create(ctx context.Context, c *entity.DocumentChunk) error {
	r.s.chunks = append(r.s.chunks, c)
	return nil
}

func (r *memChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if r.s.chunkErr != nil {
		return r.s.chunkErr
	}
	r.s.chunks = append(r.s.chunks, chunks...)
	return nil
}

func (r *memChunkRepo) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return nil
}

func (r *memChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	return nil, nil
}

func (r *memChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	byConv := parseConversationSpec(specs)
	var out []*entity.DocumentChunk
	for _, c := range r.s.chunks {
		if byConv != nil && c.ConversationId != *byConv {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	chunks, _ := r.FindAll(ctx, specs...)
	return int64(len(chunks)), nil
}

func (r *memChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, conversationId uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	return r.s.scored, r.s.searchErr
}

type memUow struct{ s *memStore }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }
func (u *memUow) ConversationRepository() contract.ConversationRepository {
	return &memConversationRepo{s: u.s}
}
func (u *memUow) MessageRepository() contract.MessageRepository { return &memMessageRepo{s: u.s} }
func (u *memUow) UploadedFileRepository() contract.UploadedFileRepository {
	return &memFileRepo{s: u.s}
}
func (u *memUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &memChunkRepo{s: u.s}
}

type memFactory struct{ s *memStore }

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{s: f.s}
}

// --- spec helpers ---

func parseSpecs(specs []specification.Specification) (byID *uuid.UUID, byOwner *uuid.UUID) {
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			byID = &id
		case specification.OwnedBy:
			owner := v.UserID
			byOwner = &owner
		}
	}
	return
}

func parseConversationSpec(specs []specification.Specification) *uuid.UUID {
	for _, s := range specs {
		if v, ok := s.(specification.ByConversationID); ok {
			id := v.ConversationID
			return &id
		}
	}
	return nil
}

func parseRoleFilter(specs []specification.Specification) string {
	for _, s := range specs {
		if v, ok := s.(specification.FilterBy); ok && v.Field == "role" {
			if role, ok := v.Value.(string); ok {
				return role
			}
		}
	}
	return ""
}

// --- provider fakes ---

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *stubEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vector}}, nil
}

func (f *stubEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type stubLLM struct {
	deltas   []llm.Delta
	chatText string
	chatErr  error
	history  []llm.Message
}

func (f *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.chatText, f.chatErr
}

func (f *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.chatText, f.chatErr
}

func (f *stubLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.Delta, error) {
	f.history = history
	out := make(chan llm.Delta)
	go func() {
		defer close(out)
		for _, d := range f.deltas {
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type stubPublisher struct {
	payloads [][]byte
	err      error
}

func (p *stubPublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type stubObjectStore struct {
	paths []string
	err   error
}

func (o *stubObjectStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	o.paths = append(o.paths, objectPath)
	return objectPath, nil
}

func seedConversation(s *memStore, userId uuid.UUID, title string) *entity.Conversation {
	c := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}
	s.conversations = append(s.conversations, c)
	return c
}
