// Package config provides configuration loading for ragchat.
//
// Values come from built-in defaults, an optional YAML file, a .env file and
// the process environment, in increasing order of precedence. See Load.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete ragchat configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	LLM         LLMConfig         `koanf:"llm"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Agent       AgentConfig       `koanf:"agent"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds web chat server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is the sustained chat requests per second allowed per session.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// LLMConfig holds the chat-completion endpoint settings.
// Any OpenAI-compatible API works; the default points at OpenRouter.
type LLMConfig struct {
	BaseURL       string   `koanf:"base_url"`
	Model         string   `koanf:"model"`
	APIKey        Secret   `koanf:"api_key"`
	Temperature   float64  `koanf:"temperature"`
	MaxToolRounds int      `koanf:"max_tool_rounds"`
	Timeout       Duration `koanf:"timeout"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	Provider  string `koanf:"provider"` // openai, tei, fastembed
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	Dimension int    `koanf:"dimension"` // 0 = derive from model
	CacheDir  string `koanf:"cache_dir"`
}

// VectorStoreConfig selects and configures the vector index backend.
type VectorStoreConfig struct {
	Provider   string `koanf:"provider"` // chromem, pgvector, qdrant
	Collection string `koanf:"collection"`
	// Recreate drops existing contents when the store is initialized.
	Recreate bool `koanf:"recreate"`

	ChromemPath     string `koanf:"chromem_path"` // empty = in-memory
	ChromemCompress bool   `koanf:"chromem_compress"`

	PgvectorURL             Secret `koanf:"pgvector_url"`
	PgvectorSchema          string `koanf:"pgvector_schema"`
	PgvectorCollectionTable string `koanf:"pgvector_collection_table"`
	PgvectorEmbeddingTable  string `koanf:"pgvector_embedding_table"`

	QdrantHost string `koanf:"qdrant_host"`
	QdrantPort int    `koanf:"qdrant_port"`
	QdrantTLS  bool   `koanf:"qdrant_tls"`
}

// RetrievalConfig holds defaults for the retrieval tools.
type RetrievalConfig struct {
	DefaultK         int     `koanf:"default_k"`
	RelevanceK       int     `koanf:"relevance_k"`
	ScoreThreshold   float64 `koanf:"score_threshold"`
	SemanticSnippet  int     `koanf:"semantic_snippet"`
	RelevanceSnippet int     `koanf:"relevance_snippet"`
}

// AgentConfig describes the assistant persona.
type AgentConfig struct {
	Name         string   `koanf:"name"`
	Role         string   `koanf:"role"`
	Instructions []string `koanf:"instructions"`
}

// IngestConfig holds corpus loading settings.
type IngestConfig struct {
	ChunkSize     int    `koanf:"chunk_size"`
	ChunkOverlap  int    `koanf:"chunk_overlap"`
	ScrubSecrets  bool   `koanf:"scrub_secrets"`
	AllowlistPath string `koanf:"allowlist_path"`
}

// LoggingConfig is the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	embeddingProviders   = map[string]bool{"openai": true, "tei": true, "fastembed": true}
	vectorStoreProviders = map[string]bool{"chromem": true, "pgvector": true, "qdrant": true}
)

// Validate checks the configuration for errors.
//
// Missing API keys are not reported here: the first remote call fails with an
// authentication error instead, so offline commands keep working without keys.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d must be 1-65535", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: rate limit and burst must not be negative", ErrInvalidConfig)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm model is required", ErrInvalidConfig)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm temperature %.2f must be within [0, 2]", ErrInvalidConfig, c.LLM.Temperature)
	}
	if c.LLM.MaxToolRounds < 1 {
		return fmt.Errorf("%w: llm max_tool_rounds must be at least 1", ErrInvalidConfig)
	}

	if !embeddingProviders[c.Embeddings.Provider] {
		return fmt.Errorf("%w: unknown embeddings provider %q (supported: openai, tei, fastembed)", ErrInvalidConfig, c.Embeddings.Provider)
	}
	if c.Embeddings.Dimension < 0 {
		return fmt.Errorf("%w: embeddings dimension must not be negative", ErrInvalidConfig)
	}

	if !vectorStoreProviders[c.VectorStore.Provider] {
		return fmt.Errorf("%w: unknown vectorstore provider %q (supported: chromem, pgvector, qdrant)", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.VectorStore.Collection == "" {
		return fmt.Errorf("%w: vectorstore collection is required", ErrInvalidConfig)
	}
	if c.VectorStore.Provider == "qdrant" && (c.VectorStore.QdrantPort < 1 || c.VectorStore.QdrantPort > 65535) {
		return fmt.Errorf("%w: qdrant port %d must be 1-65535", ErrInvalidConfig, c.VectorStore.QdrantPort)
	}

	if c.Retrieval.DefaultK < 1 || c.Retrieval.RelevanceK < 1 {
		return fmt.Errorf("%w: retrieval k values must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score threshold %.2f must be within [0, 1]", ErrInvalidConfig, c.Retrieval.ScoreThreshold)
	}
	if c.Retrieval.SemanticSnippet < 1 || c.Retrieval.RelevanceSnippet < 1 {
		return fmt.Errorf("%w: snippet lengths must be positive", ErrInvalidConfig)
	}

	if c.Ingest.ChunkSize < 1 {
		return fmt.Errorf("%w: ingest chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("%w: ingest chunk_overlap must be within [0, chunk_size)", ErrInvalidConfig)
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("%w: telemetry sample_rate must be within [0, 1]", ErrInvalidConfig)
	}

	return nil
}
