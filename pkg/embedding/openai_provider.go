package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const openAIEmbeddingModel = "text-embedding-3-small"

// OpenAIProvider implements EmbeddingProvider using the OpenAI embeddings
// API. text-embedding-3-small produces 1536-dimension vectors, already
// normalized to unit length.
type OpenAIProvider struct {
	ApiKey  string
	BaseURL string
	client  *http.Client
}

func NewOpenAIProvider(apiKey string, baseURL string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		ApiKey:  apiKey,
		BaseURL: baseURL,
		client:  &http.Client{},
	}
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// taskType is a Gemini concept; OpenAI embeddings ignore it.
	vectors, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: vectors[0],
		},
	}, nil
}

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	reqBody := openAIEmbeddingRequest{
		Model: openAIEmbeddingModel,
		Input: texts,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, &ServiceError{Provider: "openai", Code: res.StatusCode, Body: string(resByte)}
	}

	var parsed openAIEmbeddingResponse
	if err := json.Unmarshal(resByte, &parsed); err != nil {
		return nil, err
	}

	// The API documents result order matching input order, but index is
	// authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	return vectors, nil
}
