package mapper

import (
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"
)

type UploadedFileMapper struct{}

func NewUploadedFileMapper() *UploadedFileMapper {
	return &UploadedFileMapper{}
}

func (m *UploadedFileMapper) ToEntity(f *model.UploadedFile) *entity.UploadedFile {
	if f == nil {
		return nil
	}

	return &entity.UploadedFile{
		Id:             f.Id,
		ConversationId: f.ConversationId,
		FileName:       f.FileName,
		FilePath:       f.FilePath,
		FileSize:       f.FileSize,
		FileType:       f.FileType,
		CreatedAt:      f.CreatedAt,
	}
}

func (m *UploadedFileMapper) ToModel(f *entity.UploadedFile) *model.UploadedFile {
	if f == nil {
		return nil
	}

	return &model.UploadedFile{
		Id:             f.Id,
		ConversationId: f.ConversationId,
		FileName:       f.FileName,
		FilePath:       f.FilePath,
		FileSize:       f.FileSize,
		FileType:       f.FileType,
		CreatedAt:      f.CreatedAt,
	}
}

func (m *UploadedFileMapper) ToEntities(files []*model.UploadedFile) []*entity.UploadedFile {
	entities := make([]*entity.UploadedFile, len(files))
	for i, f := range files {
		entities[i] = m.ToEntity(f)
	}
	return entities
}

func (m *UploadedFileMapper) ToModels(files []*entity.UploadedFile) []*model.UploadedFile {
	models := make([]*model.UploadedFile, len(files))
	for i, f := range files {
		models[i] = m.ToModel(f)
	}
	return models
}
