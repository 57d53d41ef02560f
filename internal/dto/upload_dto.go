package dto

import "github.com/google/uuid"

// UploadRequest carries a parsed multipart upload into the ingestion
// pipeline.
type UploadRequest struct {
	ConversationId uuid.UUID
	FileName       string
	ContentType    string
	Data           []byte
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	FileName   string `json:"fileName"`
	ChunkCount int    `json:"chunkCount"`
}
