package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix namespaces ragchat's own environment variables.
	EnvPrefix = "RAGCHAT_"
)

// defaultsYAML is loaded first so every later layer only overrides.
const defaultsYAML = `
server:
  http_host: 127.0.0.1
  http_port: 8501
  shutdown_timeout: 10s
  rate_limit: 1
  rate_burst: 5
llm:
  base_url: https://openrouter.ai/api/v1
  model: meta-llama/llama-4-maverick
  temperature: 0.7
  max_tool_rounds: 5
  timeout: 120s
embeddings:
  provider: openai
  model: text-embedding-3-large
  base_url: https://api.openai.com/v1
  cache_dir: ~/.cache/ragchat/models
vectorstore:
  provider: chromem
  collection: document_vectors
  chromem_path: ~/.local/share/ragchat/vectors
  chromem_compress: true
  pgvector_schema: ai
  pgvector_collection_table: langchain_pg_collection
  pgvector_embedding_table: langchain_pg_embedding
  qdrant_host: localhost
  qdrant_port: 6334
retrieval:
  default_k: 5
  relevance_k: 3
  score_threshold: 0.7
  semantic_snippet: 300
  relevance_snippet: 400
agent:
  name: Professor Advanced RAG
  role: Especialista com Busca Avançada
  instructions:
    - Use as ferramentas de busca para encontrar informações relevantes.
    - Comece com semantic_search para busca geral.
    - Use similarity_search_with_relevance para busca mais precisa.
    - Analise os scores de relevância antes de usar as informações.
    - Combine informações de múltiplas buscas quando necessário.
    - Cite sempre as fontes e scores de relevância.
ingest:
  chunk_size: 1000
  chunk_overlap: 100
  scrub_secrets: true
logging:
  level: info
  format: console
telemetry:
  enabled: false
  endpoint: localhost:4317
  service_name: ragchat
  insecure: true
  sample_rate: 1.0
`

// envAliases maps provider-standard variables onto config keys.
// RAGCHAT_* variables are loaded afterwards and win over these.
var envAliases = map[string]string{
	"OPENROUTER_API_KEY": "llm.api_key",
	"OPENAI_API_KEY":     "embeddings.api_key",
	"DATABASE_URL":       "vectorstore.pgvector_url",
	"PGVECTOR_URL":       "vectorstore.pgvector_url",
}

// DefaultPath returns ~/.config/ragchat/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration.
//
// Precedence (highest to lowest):
//  1. RAGCHAT_* environment variables (RAGCHAT_LLM_MODEL -> llm.model)
//  2. Provider variables (OPENROUTER_API_KEY, OPENAI_API_KEY, DATABASE_URL)
//  3. YAML file at configPath, or DefaultPath() when empty; optional
//  4. Built-in defaults
//
// The YAML file must not exceed 1MB and, outside Windows, must be 0600 or 0400.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultsYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := configPath != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No user config; defaults and env only.
	default:
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envAliases[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load provider environment variables: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps RAGCHAT_SECTION_FIELD_NAME to section.field_name.
// Only the first underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// readConfigFile opens path once and validates it through the open descriptor.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// ExpandPath is ExpandHome that returns path unchanged when the home
// directory cannot be determined.
func ExpandPath(path string) string {
	if p, err := ExpandHome(path); err == nil {
		return p
	}
	return path
}
