package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	service := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, service.ModelName())
	assert.Equal(t, DefaultDimensions, service.Dimensions())
}

func TestNewEmbeddingService_CustomConfig(t *testing.T) {
	service := NewEmbeddingService(Config{
		Model:      "mxbai-embed-large",
		Dimensions: 1024,
	})

	assert.Equal(t, "mxbai-embed-large", service.ModelName())
	assert.Equal(t, 1024, service.Dimensions())
}

func TestEmbeddingService_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		require.Len(t, req.Input, 1)
		assert.Equal(t, "hello world", req.Input[0])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [[0.1, 0.2, 0.3]]}`))
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	embedding, err := service.Embed(context.Background(), "hello world")

	require.NoError(t, err)
	require.Len(t, embedding, 3)
	assert.InDelta(t, 0.1, embedding[0], 1e-6)
	assert.InDelta(t, 0.3, embedding[2], 1e-6)
}

func TestEmbeddingService_EmbedBatch_SingleRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 3)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [[1, 0], [0, 1], [1, 1]]}`))
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	embeddings, err := service.EmbedBatch(context.Background(), []string{"one", "two", "three"})

	require.NoError(t, err)
	require.Len(t, embeddings, 3)
	// The whole batch went over the wire in one call
	assert.Equal(t, 1, requests)
	assert.Equal(t, []float32{0, 1}, embeddings[1])
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	service := NewEmbeddingService(Config{BaseURL: "http://never-called.invalid"})

	embeddings, err := service.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbeddingService_EmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [[0.5]]}`))
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := service.EmbedBatch(context.Background(), []string{"one", "two"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestEmbeddingService_Embed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := service.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestEmbeddingService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	assert.NoError(t, service.Ping(context.Background()))
}

func TestEmbeddingService_Ping_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL})

	err := service.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
