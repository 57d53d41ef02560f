package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerateBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Return results out of order to exercise index-based placement.
		resp := map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{0.4, 0.5}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key", srv.URL)
	vectors, err := provider.GenerateBatch(context.Background(), []string{"first", "second"}, "")
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
}

func TestOpenAIGenerateSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{0.9, 0.8, 0.7}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key", srv.URL)
	res, err := provider.Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.9, 0.8, 0.7}, res.Embedding.Values)
}

func TestOpenAIUpstreamErrorIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "overloaded"}`))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider("test-key", srv.URL)
	_, err := provider.GenerateBatch(context.Background(), []string{"text"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrService)
}

func TestNormalizeVector(t *testing.T) {
	normalized := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	zero := normalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
