package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/chatvault/chatvault/internal/config"
)

// NewClient creates an OpenAI-compatible client from the LLM configuration.
func NewClient(cfg config.LLMConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}
