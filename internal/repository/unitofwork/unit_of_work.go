package unitofwork

import (
	"context"

	"doc-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	UploadedFileRepository() contract.UploadedFileRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
}
