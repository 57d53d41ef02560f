package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/extract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestionFixture(store *memStore, embedder *stubEmbedder, objects *stubObjectStore) IIngestionService {
	return NewIngestionService(&memFactory{s: store}, embedder, objects, logger.NewNopLogger())
}

func uploadReq(conversationId uuid.UUID, name, contentType string, data []byte) *dto.UploadRequest {
	return &dto.UploadRequest{
		ConversationId: conversationId,
		FileName:       name,
		ContentType:    contentType,
		Data:           data,
	}
}

func TestIngestSmallTextFileYieldsOneChunk(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	objects := &stubObjectStore{}
	svc := newIngestionFixture(store, &stubEmbedder{vector: []float32{0.1, 0.2}}, objects)

	content := []byte("This file is exactly fifty characters long okay!!")
	res, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "notes.txt", "text/plain", content))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "notes.txt", res.FileName)
	assert.Equal(t, 1, res.ChunkCount)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, conv.Id, store.chunks[0].ConversationId)
	assert.Equal(t, []float32{0.1, 0.2}, store.chunks[0].Embedding)
	require.Len(t, store.files, 1)
	require.Len(t, objects.paths, 1)
	assert.True(t, strings.HasPrefix(objects.paths[0], userId.String()+"/"+conv.Id.String()+"/"))
	assert.True(t, strings.HasSuffix(objects.paths[0], ".txt"))
}

func TestIngestLargeTextProducesManyChunks(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{vector: []float32{0.5}}, &stubObjectStore{})

	content := []byte(strings.Repeat("A sentence with a handful of words in it. ", 120))
	res, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "big.txt", "text/plain", content))
	require.NoError(t, err)

	assert.Greater(t, res.ChunkCount, 1)
	assert.Len(t, store.chunks, res.ChunkCount)
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{}, &stubObjectStore{})

	data := make([]byte, MaxUploadSize+1)
	_, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "huge.txt", "text/plain", data))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, store.chunks)
}

func TestIngestRejectsUnknownConversation(t *testing.T) {
	svc := newIngestionFixture(&memStore{}, &stubEmbedder{}, &stubObjectStore{})

	_, err := svc.Ingest(context.Background(), uuid.New(), uploadReq(uuid.New(), "a.txt", "text/plain", []byte("text")))
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{}, &stubObjectStore{})

	_, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "a.zip", "application/zip", []byte{0x50, 0x4b, 0x03, 0x04}))
	assert.ErrorIs(t, err, extract.ErrUnsupportedType)
}

func TestIngestRejectsBlankDocument(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{}, &stubObjectStore{})

	_, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "blank.txt", "text/plain", []byte("   \n\t ")))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestFileTrackingFailureIsNonFatal(t *testing.T) {
	store := &memStore{fileErr: errors.New("insert failed")}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{vector: []float32{0.1}}, &stubObjectStore{})

	res, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "n.txt", "text/plain", []byte("short content")))
	require.NoError(t, err, "a failed tracking insert must not fail the upload")
	assert.True(t, res.Success)
	assert.Len(t, store.chunks, 1)
}

func TestIngestEmbeddingFailureIsFatal(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{err: errors.New("provider down")}, &stubObjectStore{})

	_, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "n.txt", "text/plain", []byte("some content")))
	assert.Error(t, err)
	assert.Empty(t, store.chunks)
}

func TestIngestObjectStoreFailureIsFatal(t *testing.T) {
	store := &memStore{}
	userId := uuid.New()
	conv := seedConversation(store, userId, "docs")
	svc := newIngestionFixture(store, &stubEmbedder{vector: []float32{0.1}}, &stubObjectStore{err: errors.New("s3 down")})

	_, err := svc.Ingest(context.Background(), userId, uploadReq(conv.Id, "n.txt", "text/plain", []byte("some content")))
	assert.Error(t, err)
	assert.Empty(t, store.chunks)
}
