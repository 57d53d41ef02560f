package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
)

type UploadedFileRepository interface {
	Create(ctx context.Context, file *entity.UploadedFile) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UploadedFile, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
