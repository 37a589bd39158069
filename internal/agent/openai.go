package agent

import (
	"fmt"
	"net/http"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/tmc/langchaingo/llms/openai"
)

// unsetToken stands in for a missing key. langchaingo refuses to build a
// client without one and would otherwise fall back to OPENAI_API_KEY, which
// must never be sent to a third-party endpoint.
const unsetToken = "unset"

// NewOpenAIModel returns a chat model for any OpenAI-compatible endpoint,
// OpenRouter by default. A missing API key is not checked here; the first
// request fails with an authentication error instead.
func NewOpenAIModel(cfg config.LLMConfig) (*openai.LLM, error) {
	token := cfg.APIKey.Value()
	if token == "" {
		token = unsetToken
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(token),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: d}))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chat model %s: %w", cfg.Model, err)
	}
	return llm, nil
}

// FromAppConfig maps persona and LLM settings to a Config.
func FromAppConfig(agentCfg config.AgentConfig, llmCfg config.LLMConfig) Config {
	return Config{
		Name:          agentCfg.Name,
		Role:          agentCfg.Role,
		Instructions:  agentCfg.Instructions,
		ModelID:       llmCfg.Model,
		Temperature:   llmCfg.Temperature,
		MaxToolRounds: llmCfg.MaxToolRounds,
	}
}
