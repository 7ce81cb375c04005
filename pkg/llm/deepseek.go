package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	deepSeekTemperature = 0.7
	deepSeekTimeout     = 30 * time.Second
)

// DeepSeekConfig configures an OpenAI compatible chat completions client.
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string // default: https://api.deepseek.com
	Model   string // default: deepseek-chat
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// DeepSeekClient implements TextGenerator against /v1/chat/completions.
type DeepSeekClient struct {
	cfg     DeepSeekConfig
	client  *http.Client
	stream  *http.Client
	breaker *Breaker
}

// NewDeepSeekClient creates a client. breaker may be shared with other
// models of the same provider; nil gets a private default breaker.
func NewDeepSeekClient(cfg DeepSeekConfig, breaker *Breaker) *DeepSeekClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = deepSeekTimeout
	}
	if breaker == nil {
		breaker = NewBreaker("deepseek", DefaultBreakerConfig(), nil, nil)
	}

	c := &DeepSeekClient{cfg: cfg, breaker: breaker}
	if cfg.HTTPClient != nil {
		c.client = cfg.HTTPClient
		c.stream = cfg.HTTPClient
	} else {
		c.client = &http.Client{Timeout: cfg.Timeout}
		// Streams may run longer than the timeout; only the wait for the
		// first byte is bounded.
		c.stream = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Timeout,
		}}
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// Model returns the configured model name
func (c *DeepSeekClient) Model() string {
	return c.cfg.Model
}

// Chat sends one system and one user message and returns the reply.
func (c *DeepSeekClient) Chat(ctx context.Context, system, user string) (string, error) {
	var reply string
	err := c.breaker.Do(ctx, func() error {
		var err error
		reply, err = c.chat(ctx, system, user)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("deepseek: %w", err)
	}
	return reply, nil
}

func (c *DeepSeekClient) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.do(ctx, c.client, system, user, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(data.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(data.Choices[0].Message.Content), nil
}

// Stream requests a streamed completion and forwards each content fragment.
func (c *DeepSeekClient) Stream(ctx context.Context, system, user string, onDelta func(string) error) error {
	err := c.breaker.Do(ctx, func() error {
		resp, err := c.do(ctx, c.stream, system, user, true)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return readEventStream(resp.Body, onDelta)
	})
	if err != nil {
		return fmt.Errorf("deepseek: %w", err)
	}
	return nil
}

func (c *DeepSeekClient) do(ctx context.Context, client *http.Client, system, user string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: deepSeekTemperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// readEventStream parses "data:" lines until [DONE]. Blank lines, comments
// and chunks that are not valid JSON are skipped.
func readEventStream(r io.Reader, onDelta func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			text = chunk.Choices[0].Message.Content
		}
		if text == "" {
			continue
		}
		if err := onDelta(text); err != nil {
			return err
		}
	}
	return scanner.Err()
}

var _ TextGenerator = (*DeepSeekClient)(nil)
