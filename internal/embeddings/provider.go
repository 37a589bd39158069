package embeddings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider generates embeddings.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the vector size produced by the model.
	Dimension() int
	// Model returns the configured model name.
	Model() string
	Close() error
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Provider string // "openai", "tei" or "fastembed"
	Model    string
	BaseURL  string
	APIKey   string
	// Dimension overrides the value derived from the model name.
	Dimension int
	CacheDir  string
}

// ConfigFromApp maps the embeddings section of the application config.
func ConfigFromApp(c config.EmbeddingsConfig) ProviderConfig {
	return ProviderConfig{
		Provider:  c.Provider,
		Model:     c.Model,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey.Value(),
		Dimension: c.Dimension,
		CacheDir:  config.ExpandPath(c.CacheDir),
	}
}

// NewProvider builds the configured provider.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics(logger)

	dim := cfg.Dimension
	if dim <= 0 {
		dim = DimensionForModel(cfg.Model)
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "openai", "":
		p, err = NewOpenAIProvider(OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			Dimension: dim,
		}, metrics)
	case "tei":
		p, err = NewTEIProvider(TEIConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			Dimension: dim,
		}, metrics)
	case "fastembed":
		p, err = NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", p.Model()),
		zap.Int("dimension", p.Dimension()),
	)
	return p, nil
}

var knownDimensions = map[string]int{
	"text-embedding-3-large":                 3072,
	"text-embedding-3-small":                 1536,
	"text-embedding-ada-002":                 1536,
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// DimensionForModel returns the vector size for a known model, then guesses
// from the name. Unknown models fall back to 384.
func DimensionForModel(model string) int {
	// OpenAI-compatible gateways prefix the vendor, e.g. "openai/text-embedding-3-large".
	name := model
	if i := strings.LastIndex(name, "/"); i >= 0 && strings.HasPrefix(name[i+1:], "text-embedding") {
		name = name[i+1:]
	}
	if dim, ok := knownDimensions[name]; ok {
		return dim
	}
	switch {
	case strings.Contains(name, "base"):
		return 768
	case strings.Contains(name, "large"):
		return 1024
	default:
		return 384
	}
}
