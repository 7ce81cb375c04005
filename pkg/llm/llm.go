// Package llm wraps the external text generation providers behind a single
// interface. A nil *Client means no provider is configured and callers fall
// back to rule based replies.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("llm returned empty content")

// TextGenerator produces a reply for a system prompt and one user turn.
type TextGenerator interface {
	// Chat returns the whole reply.
	Chat(ctx context.Context, system, user string) (string, error)
	// Stream calls onDelta for each text fragment as it arrives. An error
	// returned by onDelta stops the stream and is returned as is.
	Stream(ctx context.Context, system, user string, onDelta func(string) error) error
	// Model is the provider model name used for replies.
	Model() string
}

// Client pairs the standard generator with the one used when deep thinking
// is requested.
type Client struct {
	Provider string
	Standard TextGenerator
	Deep     TextGenerator
}

// For returns the generator for the requested mode. Deep falls back to
// Standard when no separate model is configured.
func (c *Client) For(deepThink bool) TextGenerator {
	if deepThink && c.Deep != nil {
		return c.Deep
	}
	return c.Standard
}

// Model returns the model name for the requested mode, or "fallback" when c
// is nil.
func (c *Client) Model(deepThink bool) string {
	if c == nil {
		return "fallback"
	}
	return c.For(deepThink).Model()
}
