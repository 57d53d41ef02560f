package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/textsplit"

	"github.com/google/uuid"
)

// MaxUploadSize is the upload cap: 5 MiB.
const MaxUploadSize = 5 * 1024 * 1024

// ObjectStore is the slice of the object storage client the ingestion
// pipeline needs.
type ObjectStore interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

type IIngestionService interface {
	Ingest(ctx context.Context, userId uuid.UUID, req *dto.UploadRequest) (*dto.UploadResponse, error)
}

type ingestionService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	objectStore       ObjectStore
	log               logger.ILogger
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	objectStore ObjectStore,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		objectStore:       objectStore,
		log:               log,
	}
}

// Ingest runs the full document pipeline: validate, extract text, store the
// raw file, split, embed, and persist chunks. A failed file-tracking insert
// is logged but does not fail the upload; failed chunk persistence does.
func (s *ingestionService) Ingest(ctx context.Context, userId uuid.UUID, req *dto.UploadRequest) (*dto.UploadResponse, error) {
	if int64(len(req.Data)) > MaxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(req.Data))
	}

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

	text, err := extract.Text(req.Data, req.ContentType, req.FileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	objectPath := s.objectPath(userId, req.ConversationId, req.FileName)
	storedPath, err := s.objectStore.Put(ctx, objectPath, req.Data, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store raw file: %w", err)
	}

	// File tracking is best-effort: the raw file already sits in object
	// storage, so a missing record is a recoverable inconsistency.
	file := entity.UploadedFile{
		Id:             uuid.New(),
		ConversationId: req.ConversationId,
		FileName:       req.FileName,
		FilePath:       storedPath,
		FileSize:       int64(len(req.Data)),
		FileType:       req.ContentType,
		CreatedAt:      time.Now(),
	}
	if err := uow.UploadedFileRepository().Create(ctx, &file); err != nil {
		s.log.Warn("ingestion", "failed to record uploaded file, continuing", map[string]interface{}{
			"conversation_id": req.ConversationId.String(),
			"file_name":       req.FileName,
			"error":           err.Error(),
		})
	}

	chunks, err := textsplit.Split(text, textsplit.DefaultChunkSize, textsplit.DefaultOverlap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyDocument, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embeddingProvider.GenerateBatch(ctx, texts, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chunkEntities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		chunkEntities[i] = &entity.DocumentChunk{
			Id:             uuid.New(),
			ConversationId: req.ConversationId,
			FileName:       req.FileName,
			Content:        c.Content,
			Metadata: map[string]interface{}{
				"chunk_index": c.Index,
			},
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		return nil, fmt.Errorf("persist chunks: %w", err)
	}

	s.log.Info("ingestion", "document ingested", map[string]interface{}{
		"conversation_id": req.ConversationId.String(),
		"file_name":       req.FileName,
		"chunk_count":     len(chunkEntities),
	})

	return &dto.UploadResponse{
		Success:    true,
		FileName:   req.FileName,
		ChunkCount: len(chunkEntities),
	}, nil
}

func (s *ingestionService) objectPath(userId, conversationId uuid.UUID, fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s/%d.%s", userId, conversationId, time.Now().UnixNano(), ext)
}
