// Package agent turns one user message into an assistant reply. The
// orchestrator routes the message, runs the needed tools and composes the
// final prompt; the engine wraps it with fallbacks so a reply is always
// produced.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/guardrails"
	"github.com/acgn-assistant/acgn-assistant/pkg/llm"
	"github.com/acgn-assistant/acgn-assistant/pkg/memory"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/recommend"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const (
	recommendLimit = 5
	recommendDays  = 14
)

// Recommender is the part of the recommendation engine the agent uses
type Recommender interface {
	Recommend(userID uuid.UUID, limit, days int) (*recommend.Result, error)
}

// Options wires the agent's dependencies. LLM, Terms, Logger and Metrics may
// be nil.
type Options struct {
	LLM         *llm.Client
	Profiles    store.ProfilesStore
	Memories    store.MemoryStore
	Recommender Recommender
	Terms       *TermCache
	Logger      *zap.Logger
	Metrics     *metrics.Collector
}

// Orchestrator decides, acts and writes the final reply for one message
type Orchestrator struct {
	llm         *llm.Client
	profiles    store.ProfilesStore
	memories    store.MemoryStore
	recommender Recommender
	terms       *TermCache
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		llm:         opts.LLM,
		profiles:    opts.Profiles,
		memories:    opts.Memories,
		recommender: opts.Recommender,
		terms:       opts.Terms,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Reply produces the assistant text for text. Only store failures are
// returned; model failures degrade to fixed texts.
func (o *Orchestrator) Reply(ctx context.Context, userID uuid.UUID, text string, deepThink bool) (string, error) {
	if guardrails.Check(text).Blocked {
		return guardrails.ShortRefusalText, nil
	}

	memCtx, err := memory.BuildContext(o.profiles, o.memories, userID)
	if err != nil {
		return "", err
	}
	prompt := memory.WrapPrompt(memCtx, text)

	decision := o.decide(ctx, text)

	var blocks []string
	if decision.NeedsTermExplain {
		if expl := o.explainTerm(ctx, text, decision.TermOrEmpty()); expl != "" {
			blocks = append(blocks, "【知识补充】\n"+expl)
		}
	}
	if decision.NeedsRecommendations {
		block, err := o.recommendations(ctx, userID, text)
		if err != nil {
			return "", err
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	if decision.NeedsOverview {
		blocks = append(blocks, overviewOffer)
	}

	if _, err := memory.Upsert(o.memories, userID, memory.ExtractDrafts(text)); err != nil {
		o.logger.Warn("failed to write memories", zap.String("user_id", userID.String()), zap.Error(err))
	}

	extra := strings.Join(blocks, "\n\n")
	return o.compose(ctx, prompt, extra, deepThink), nil
}

func (o *Orchestrator) explainTerm(ctx context.Context, text, term string) string {
	if o.llm == nil {
		return ""
	}
	if cached, ok := o.terms.Get(term); ok {
		return cached
	}
	expl, err := o.llm.Standard.Chat(ctx, TermExplainerPrompt, "用户问题："+text+"\n要解释的术语/概念（如不确定可从问题中提炼）："+term)
	if err != nil {
		o.logger.Debug("term explanation failed", zap.Error(err))
		return ""
	}
	o.terms.Set(term, expl)
	return expl
}

func (o *Orchestrator) recommendations(ctx context.Context, userID uuid.UUID, text string) (string, error) {
	if o.recommender == nil {
		return "", nil
	}
	rec, err := o.recommender.Recommend(userID, recommendLimit, recommendDays)
	if err != nil {
		return "", fmt.Errorf("failed to recommend resources: %w", err)
	}
	if len(rec.Items) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(rec.Items))
	for _, r := range rec.Items {
		line := "- " + r.Title
		if r.URL != nil && *r.URL != "" {
			line += "（" + *r.URL + "）"
		}
		lines = append(lines, line)
	}
	candidates := strings.Join(lines, "\n")

	if o.llm != nil {
		prompt := "用户诉求：" + text + "\n\n候选资源：\n" + candidates + "\n\n请挑选 2-4 条并说明用途："
		picked, err := o.llm.Standard.Chat(ctx, ResourceExpertPrompt, prompt)
		if err == nil && strings.TrimSpace(picked) != "" {
			return "【资源建议】\n" + picked, nil
		}
		if err != nil {
			o.logger.Debug("resource pick failed", zap.Error(err))
		}
	}
	return "【候选资源】\n" + candidates, nil
}

// compose asks the model for the final reply, or renders the fallback text
// with the tool blocks appended.
func (o *Orchestrator) compose(ctx context.Context, prompt, extra string, deepThink bool) string {
	merged := prompt
	if extra != "" {
		merged = prompt + "\n\n【工具/协作结果】\n" + extra
	}

	if o.llm != nil {
		reply, err := o.llm.For(deepThink).Chat(ctx, withDeepThink(SupportiveListenerPrompt, deepThink), merged)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			o.logger.Warn("final reply failed, using fallback", zap.Error(err))
		}
	}

	o.metrics.Fallback()
	if extra != "" {
		return FallbackReply + "\n【补充信息】\n" + extra
	}
	return FallbackReply
}
