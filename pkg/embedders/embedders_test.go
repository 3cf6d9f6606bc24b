package embedders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIEmbedder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	embedder, err := NewOpenAIEmbedder(Config{
		APIKey:     "test-key",
		Host:       server.URL,
		MaxRetries: 3,
	})
	require.NoError(t, err)
	return server, embedder
}

func TestOpenAIEmbedRestoresInputOrder(t *testing.T) {
	_, embedder := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req OpenAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		require.Len(t, req.Input, 2)

		// Answer out of order, the client must sort by index.
		fmt.Fprint(w, `{"object":"list","data":[
			{"object":"embedding","embedding":[0.2],"index":1},
			{"object":"embedding","embedding":[0.1],"index":0}
		],"model":"text-embedding-3-small"}`)
	})

	got, err := embedder.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float32{0.1}, got[0])
	assert.Equal(t, []float32{0.2}, got[1])
}

func TestOpenAIEmbedSingle(t *testing.T) {
	_, embedder := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1,2,3],"index":0}]}`)
	})
	got, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got)
}

func TestOpenAIBatchSplitting(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req OpenAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := OpenAIEmbedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(i)}, Index: i})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	embedder, err := NewOpenAIEmbedder(Config{APIKey: "k", Host: server.URL, BatchSize: 2})
	require.NoError(t, err)

	got, err := embedder.EmbedBatch(context.Background(),
		[]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, int32(3), requests.Load())
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	_, embedder := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":[{"embedding":[1],"index":0}]}`)
	})

	got, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	_, embedder := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad input","type":"invalid_request_error","code":"invalid"}}`)
	})

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error: bad input")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAIEmbedder(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY environment variable not set")
}

func TestOpenAIDimensionDefaults(t *testing.T) {
	tests := []struct {
		model string
		dim   int
		want  int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"custom-model", 0, 1536},
		{"custom-model", 42, 42},
	}
	for _, tt := range tests {
		embedder, err := NewOpenAIEmbedder(Config{APIKey: "k", Model: tt.model, Dimension: tt.dim})
		require.NoError(t, err)
		assert.Equal(t, tt.want, embedder.GetDimension(), "model %s", tt.model)
		assert.Equal(t, tt.model, embedder.GetModelName())
	}
}

func TestOllamaEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)
		fmt.Fprint(w, `{"embedding":[0.5,0.6]}`)
	}))
	t.Cleanup(server.Close)

	embedder, err := NewOllamaEmbedder(Config{Host: server.URL})
	require.NoError(t, err)
	got, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, got)
	assert.Equal(t, 768, embedder.GetDimension())
}

func TestOllamaRejectsEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":[]}`)
	}))
	t.Cleanup(server.Close)

	embedder, err := NewOllamaEmbedder(Config{Host: server.URL, MaxRetries: 1})
	require.NoError(t, err)
	_, err = embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestCohereEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		var req CohereEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "search_document", req.InputType)
		require.Len(t, req.Texts, 2)
		fmt.Fprint(w, `{"id":"x","embeddings":[[0.1],[0.2]]}`)
	}))
	t.Cleanup(server.Close)

	embedder, err := NewCohereEmbedder(Config{APIKey: "k", Host: server.URL})
	require.NoError(t, err)
	got, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, got)
	assert.Equal(t, 1024, embedder.GetDimension())
}

func TestNewSelectsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	embedder, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, embedder)
	assert.Equal(t, "text-embedding-3-small", embedder.GetModelName())

	embedder, err = New(Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, embedder)

	_, err = New(Config{Provider: "vertex"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedder provider")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Provider: "openai"}
	assert.NoError(t, cfg.Validate())

	cfg = Config{Provider: "bad"}
	assert.Error(t, cfg.Validate())

	cfg = Config{Provider: "openai", Timeout: -1}
	assert.Error(t, cfg.Validate())

	cfg = Config{Provider: "openai", MaxRetries: -2}
	assert.Error(t, cfg.Validate())
}
