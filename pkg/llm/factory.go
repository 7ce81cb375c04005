package llm

import (
	"strings"

	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
)

// NewFromConfig builds the client for the configured provider. It returns nil
// when the provider has no API key.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, m *metrics.Collector) *Client {
	if !cfg.LLMConfigured() {
		return nil
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	breaker := NewBreaker(provider, DefaultBreakerConfig(), logger, m)

	switch provider {
	case "anthropic":
		return &Client{
			Provider: provider,
			Standard: NewAnthropicClient(AnthropicConfig{
				APIKey: cfg.AnthropicAPIKey,
				Model:  cfg.AnthropicModel,
			}, breaker),
			Deep: NewAnthropicClient(AnthropicConfig{
				APIKey:    cfg.AnthropicAPIKey,
				Model:     cfg.AnthropicModel,
				MaxTokens: 4096,
			}, breaker),
		}
	default:
		c := &Client{
			Provider: "deepseek",
			Standard: NewDeepSeekClient(DeepSeekConfig{
				APIKey:  cfg.DeepSeekAPIKey,
				BaseURL: cfg.DeepSeekBaseURL,
				Model:   cfg.DeepSeekModel,
			}, breaker),
		}
		if m := strings.TrimSpace(cfg.DeepSeekDeepThinkModel); m != "" {
			c.Deep = NewDeepSeekClient(DeepSeekConfig{
				APIKey:  cfg.DeepSeekAPIKey,
				BaseURL: cfg.DeepSeekBaseURL,
				Model:   m,
			}, breaker)
		}
		return c
	}
}
