package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/guardrails"
	"github.com/acgn-assistant/acgn-assistant/pkg/llm"
	"github.com/acgn-assistant/acgn-assistant/pkg/memory"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// Engine always produces a reply: orchestrator first, then a single model
// call, then a fixed rule reply.
type Engine struct {
	orch     *Orchestrator
	llm      *llm.Client
	profiles store.ProfilesStore
	memories store.MemoryStore
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewEngine creates an Engine and its orchestrator
func NewEngine(opts Options) *Engine {
	orch := NewOrchestrator(opts)
	return &Engine{
		orch:     orch,
		llm:      opts.LLM,
		profiles: opts.Profiles,
		memories: opts.Memories,
		logger:   orch.logger,
		metrics:  opts.Metrics,
	}
}

// Model names the model that answers in the given mode, or "fallback"
func (e *Engine) Model(deepThink bool) string {
	return e.llm.Model(deepThink)
}

// LLMConfigured reports whether a provider is available
func (e *Engine) LLMConfigured() bool {
	return e.llm != nil
}

// Generate returns the reply for a stored user message. blocked is the
// guard's verdict on the original text.
func (e *Engine) Generate(ctx context.Context, userID uuid.UUID, text string, blocked, deepThink bool) string {
	if blocked {
		return guardrails.RefusalText
	}

	reply, err := e.orch.Reply(ctx, userID, text, deepThink)
	if err == nil {
		return reply
	}
	e.logger.Warn("agent orchestration failed, using single turn reply",
		zap.String("user_id", userID.String()),
		zap.Error(err),
	)

	if e.llm != nil {
		system := withDeepThink(SingleTurnPrompt, deepThink)
		reply, err := e.llm.For(deepThink).Chat(ctx, system, e.prompt(userID, text))
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			e.logger.Warn("single turn reply failed", zap.Error(err))
		}
	}

	e.metrics.Fallback()
	return RuleReply
}

// Stream sends the reply through onDelta and returns the full text. With a
// model and an unblocked message the provider stream is forwarded; otherwise
// the Generate reply is sent as one delta. A provider failure before the
// first delta also degrades to Generate. A failure after it is returned with
// the text received so far.
func (e *Engine) Stream(ctx context.Context, userID uuid.UUID, text string, blocked, deepThink bool, onDelta func(string) error) (string, error) {
	if e.llm == nil || blocked {
		reply := e.Generate(ctx, userID, text, blocked, deepThink)
		return reply, onDelta(reply)
	}

	var acc strings.Builder
	sent := false
	system := withDeepThink(SupportiveListenerPrompt, deepThink)
	err := e.llm.For(deepThink).Stream(ctx, system, e.prompt(userID, text), func(delta string) error {
		acc.WriteString(delta)
		sent = true
		return onDelta(delta)
	})
	if err == nil {
		return strings.TrimSpace(acc.String()), nil
	}
	if sent || ctx.Err() != nil {
		return strings.TrimSpace(acc.String()), err
	}

	e.logger.Warn("llm stream failed, sending full reply", zap.Error(err))
	reply := e.Generate(ctx, userID, text, blocked, deepThink)
	return reply, onDelta(reply)
}

// prompt wraps text with the user's memory context. A store failure only
// drops the context.
func (e *Engine) prompt(userID uuid.UUID, text string) string {
	memCtx, err := memory.BuildContext(e.profiles, e.memories, userID)
	if err != nil {
		e.logger.Warn("failed to build memory context", zap.Error(err))
		return text
	}
	return memory.WrapPrompt(memCtx, text)
}

// Close releases the term cache
func (e *Engine) Close() {
	e.orch.terms.Close()
}
