package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr error
	}{
		{
			name: "tei",
			cfg:  ProviderConfig{Provider: "tei", BaseURL: "http://localhost:8080", Model: "BAAI/bge-base-en-v1.5"},
		},
		{
			name:    "tei without base url",
			cfg:     ProviderConfig{Provider: "tei"},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "openai with key",
			cfg:  ProviderConfig{Provider: "openai", Model: "text-embedding-3-large", APIKey: "sk-test"},
		},
		{
			name:    "openai without model",
			cfg:     ProviderConfig{Provider: "openai", APIKey: "sk-test"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown",
			cfg:     ProviderConfig{Provider: "word2vec"},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Model, p.Model())
			assert.NoError(t, p.Close())
		})
	}
}

func TestNewProvider_DimensionOverride(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Provider: "tei", BaseURL: "http://tei", Model: "custom", Dimension: 1024}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1024, p.Dimension())
}

func TestDimensionForModel(t *testing.T) {
	tests := map[string]int{
		"text-embedding-3-large":        3072,
		"text-embedding-3-small":        1536,
		"openai/text-embedding-3-large": 3072,
		"text-embedding-ada-002":        1536,
		"BAAI/bge-small-en-v1.5":        384,
		"BAAI/bge-base-en-v1.5":         768,
		"intfloat/e5-large":             1024,
		"nomic-embed-text-base":         768,
		"something":                     384,
	}
	for model, want := range tests {
		assert.Equal(t, want, DimensionForModel(model), model)
	}
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(config.EmbeddingsConfig{
		Provider: "openai",
		Model:    "text-embedding-3-large",
		BaseURL:  "https://api.openai.com/v1",
		APIKey:   config.Secret("sk-x"),
		CacheDir: "/tmp/models",
	})
	assert.Equal(t, "sk-x", cfg.APIKey)
	assert.Equal(t, "/tmp/models", cfg.CacheDir)
}

func TestOpenAIProvider_AgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{0.1, 0.2, float32(i)}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL, Model: "text-embedding-3-small", APIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1536, p.Dimension())

	vecs, err := p.EmbedDocuments(context.Background(), []string{"um", "dois"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDelta(t, 1.0, vecs[1][2], 1e-6)

	vec, err := p.EmbedQuery(context.Background(), "três")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}
