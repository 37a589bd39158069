package embeddings

import (
	"fmt"
	"strings"
	"time"
)

// teiPlaceholderToken satisfies langchaingo's token check; TEI does not
// authenticate unless started with --api-key.
const teiPlaceholderToken = "placeholder"

// teiDefaultModel is sent when no model is configured. TEI serves a single
// model and ignores the name.
const teiDefaultModel = "tei"

// TEIConfig configures a Text-Embeddings-Inference server.
type TEIConfig struct {
	// BaseURL is the server root; "/v1" is appended for the OpenAI-compatible
	// route unless already present.
	BaseURL   string
	Model     string
	APIKey    string // optional bearer token
	Dimension int
	Timeout   time.Duration
}

// NewTEIProvider returns a provider for TEI's OpenAI-compatible
// /v1/embeddings endpoint, served through the same langchaingo client as
// OpenAI. No request is made.
func NewTEIProvider(cfg TEIConfig, metrics *Metrics) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = teiPlaceholderToken
	}
	model := cfg.Model
	if model == "" {
		model = teiDefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return NewOpenAIProvider(OpenAIConfig{
		BaseURL:   base,
		Model:     model,
		APIKey:    apiKey,
		Dimension: cfg.Dimension,
		Timeout:   timeout,
	}, metrics)
}
