package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey    string
	Model     string // default: claude-3-5-haiku-latest
	MaxTokens int64  // default: 2048
	Timeout   time.Duration
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL string
}

// AnthropicClient implements TextGenerator with the official SDK.
type AnthropicClient struct {
	cfg     AnthropicConfig
	client  anthropic.Client
	breaker *Breaker
}

// NewAnthropicClient creates a client. SDK retries are disabled so the
// breaker sees every failure.
func NewAnthropicClient(cfg AnthropicConfig, breaker *Breaker) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if breaker == nil {
		breaker = NewBreaker("anthropic", DefaultBreakerConfig(), nil, nil)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicClient{cfg: cfg, client: anthropic.NewClient(opts...), breaker: breaker}
}

// Model returns the configured model name
func (c *AnthropicClient) Model() string {
	return c.cfg.Model
}

func (c *AnthropicClient) params(system, user string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
}

// Chat returns the concatenated text blocks of the reply.
func (c *AnthropicClient) Chat(ctx context.Context, system, user string) (string, error) {
	var reply string
	err := c.breaker.Do(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		msg, err := c.client.Messages.New(ctx, c.params(system, user))
		if err != nil {
			return err
		}
		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		reply = strings.TrimSpace(sb.String())
		if reply == "" {
			return ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	return reply, nil
}

// Stream forwards text deltas from the streaming Messages API.
func (c *AnthropicClient) Stream(ctx context.Context, system, user string, onDelta func(string) error) error {
	err := c.breaker.Do(ctx, func() error {
		stream := c.client.Messages.NewStreaming(ctx, c.params(system, user))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			switch evt := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
					if err := onDelta(delta.Text); err != nil {
						return err
					}
				}
			}
		}
		return stream.Err()
	})
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	return nil
}

var _ TextGenerator = (*AnthropicClient)(nil)
