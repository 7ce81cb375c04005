package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/config"
)

func TestAnthropicClient_Chat(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "你好，"}, {"type": "text", "text": "旅行者"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "ak-test", BaseURL: srv.URL}, nil)
	reply, err := c.Chat(context.Background(), "sys", "hi")
	require.NoError(t, err)

	assert.Equal(t, "你好，旅行者", reply)
	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.Equal(t, float64(2048), body["max_tokens"])
}

func TestAnthropicClient_ChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "ak-test", BaseURL: srv.URL}, nil)
	_, err := c.Chat(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, NewFromConfig(cfg, nil, nil), "no key means fallback mode")

	cfg.DeepSeekAPIKey = "sk"
	c := NewFromConfig(cfg, nil, nil)
	require.NotNil(t, c)
	assert.Equal(t, "deepseek", c.Provider)
	assert.Equal(t, "deepseek-chat", c.Model(false))
	assert.Equal(t, "deepseek-reasoner", c.Model(true))

	cfg.DeepSeekDeepThinkModel = ""
	c = NewFromConfig(cfg, nil, nil)
	assert.Equal(t, "deepseek-chat", c.Model(true))

	cfg.LLMProvider = "anthropic"
	assert.Nil(t, NewFromConfig(cfg, nil, nil))
	cfg.AnthropicAPIKey = "ak"
	c = NewFromConfig(cfg, nil, nil)
	require.NotNil(t, c)
	assert.Equal(t, "anthropic", c.Provider)
	assert.IsType(t, &AnthropicClient{}, c.For(true))

	var none *Client
	assert.Equal(t, "fallback", none.Model(false))
}
