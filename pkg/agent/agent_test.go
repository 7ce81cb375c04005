package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/guardrails"
	"github.com/acgn-assistant/acgn-assistant/pkg/llm"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/recommend"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type chatCall struct {
	System string
	User   string
}

// fakeGenerator answers by system prompt and records every call
type fakeGenerator struct {
	mu      sync.Mutex
	model   string
	answers map[string]string
	err     error
	deltas  []string
	calls   []chatCall
}

func (g *fakeGenerator) Chat(_ context.Context, system, user string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, chatCall{System: system, User: user})
	if g.err != nil {
		return "", g.err
	}
	for prefix, answer := range g.answers {
		if strings.HasPrefix(system, prefix) {
			return answer, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

func (g *fakeGenerator) Stream(_ context.Context, system, user string, onDelta func(string) error) error {
	g.mu.Lock()
	g.calls = append(g.calls, chatCall{System: system, User: user})
	deltas, err := g.deltas, g.err
	g.mu.Unlock()
	if err != nil {
		return err
	}
	for _, d := range deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGenerator) Model() string { return g.model }

func (g *fakeGenerator) callsWith(systemPrefix string) []chatCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []chatCall
	for _, c := range g.calls {
		if strings.HasPrefix(c.System, systemPrefix) {
			out = append(out, c)
		}
	}
	return out
}

type fakeProfiles struct {
	store.ProfilesStore
	profile *model.UserProfile
	err     error
}

func (f *fakeProfiles) GetProfile(uuid.UUID) (*model.UserProfile, error) {
	return f.profile, f.err
}

type fakeMemories struct {
	store.MemoryStore
	items    []model.MemoryItem
	upserted []model.MemoryItem
}

func (f *fakeMemories) ListMemory(uuid.UUID, string, int) ([]model.MemoryItem, error) {
	return f.items, nil
}

func (f *fakeMemories) UpsertMemory(item *model.MemoryItem) error {
	f.upserted = append(f.upserted, *item)
	return nil
}

type fakeRecommender struct {
	items []model.Resource
	err   error
	calls int
}

func (f *fakeRecommender) Recommend(uuid.UUID, int, int) (*recommend.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.Result{Items: f.items}, nil
}

func strPtr(s string) *string { return &s }

func TestKeywordDecide(t *testing.T) {
	tests := []struct {
		text string
		want Decision
	}{
		{text: "你好"},
		{text: "推荐几部类似的番", want: Decision{NeedsRecommendations: true}},
		{text: "共通线是什么", want: Decision{NeedsTermExplain: true, Term: strPtr("共通线是什么")}},
		{text: "帮我整理一下世界观", want: Decision{NeedsOverview: true}},
		{
			text: "入坑顺序",
			want: Decision{NeedsRecommendations: true, NeedsOverview: true},
		},
		{
			text: "请解释一下这个非常非常非常非常非常非常长的术语到底在说些什么",
			want: Decision{NeedsTermExplain: true, Term: strPtr("请解释一下这个非常非常非常非常非常非常长的术语到")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordDecide(tt.text))
		})
	}
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("好的：\n```json\n{\"needs_recommendations\":true,\"needs_term_explain\":1,\"needs_overview\":false,\"term\":\" FD \"}\n```")
	require.NoError(t, err)
	assert.Equal(t, Decision{NeedsRecommendations: true, NeedsTermExplain: true, Term: strPtr("FD")}, d)

	d, err = ParseDecision(`{"needs_overview":true,"term":null}`)
	require.NoError(t, err)
	assert.Equal(t, Decision{NeedsOverview: true}, d)

	_, err = ParseDecision("no json here")
	assert.Error(t, err)
	_, err = ParseDecision("{not json}")
	assert.Error(t, err)
}

func TestOrchestrator_Blocked(t *testing.T) {
	o := NewOrchestrator(Options{Profiles: &fakeProfiles{}, Memories: &fakeMemories{}})
	reply, err := o.Reply(context.Background(), uuid.New(), "求个网盘链接", false)
	require.NoError(t, err)
	assert.Equal(t, guardrails.ShortRefusalText, reply)
}

func TestOrchestrator_FallbackWithCandidates(t *testing.T) {
	m := metrics.New()
	memories := &fakeMemories{}
	rec := &fakeRecommender{items: []model.Resource{
		{Title: "A", URL: strPtr("https://a")},
		{Title: "B"},
	}}
	o := NewOrchestrator(Options{
		Profiles:    &fakeProfiles{},
		Memories:    memories,
		Recommender: rec,
		Metrics:     m,
	})

	reply, err := o.Reply(context.Background(), uuid.New(), "我喜欢推理，推荐几部类似的番", false)
	require.NoError(t, err)

	assert.Equal(t, FallbackReply+"\n【补充信息】\n【候选资源】\n- A（https://a）\n- B", reply)
	assert.Equal(t, 1, rec.calls)
	require.Len(t, memories.upserted, 1)
	assert.Equal(t, "偏好/喜欢", memories.upserted[0].Title)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AgentFallback))
}

func TestOrchestrator_WithLLM(t *testing.T) {
	gen := &fakeGenerator{model: "deepseek-chat", answers: map[string]string{
		RouterPrompt:             `{"needs_recommendations":true,"needs_term_explain":true,"needs_overview":true,"term":"共通线"}`,
		TermExplainerPrompt:      "共通线是各路线共享的前半段剧情。",
		ResourceExpertPrompt:     "- A：适合入门",
		SupportiveListenerPrompt: "最终回答",
	}}
	terms, err := NewTermCache(0, 0)
	require.NoError(t, err)
	defer terms.Close()

	name := "小明"
	o := NewOrchestrator(Options{
		LLM:         &llm.Client{Provider: "deepseek", Standard: gen},
		Profiles:    &fakeProfiles{profile: &model.UserProfile{DisplayName: &name}},
		Memories:    &fakeMemories{},
		Recommender: &fakeRecommender{items: []model.Resource{{Title: "A"}}},
		Terms:       terms,
	})

	reply, err := o.Reply(context.Background(), uuid.New(), "共通线是什么", true)
	require.NoError(t, err)
	assert.Equal(t, "最终回答", reply)

	final := gen.callsWith(SupportiveListenerPrompt)
	require.Len(t, final, 1)
	assert.True(t, strings.HasSuffix(final[0].System, DeepThinkSuffix))
	assert.Equal(t, "【背景信息（系统记忆，供参考）】\n用户称呼/昵称：小明\n\n【用户输入】\n共通线是什么"+
		"\n\n【工具/协作结果】\n"+
		"【知识补充】\n共通线是各路线共享的前半段剧情。\n\n"+
		"【资源建议】\n- A：适合入门\n\n"+
		overviewOffer, final[0].User)

	terms.Wait()
	_, err = o.Reply(context.Background(), uuid.New(), "共通线是什么", false)
	require.NoError(t, err)
	assert.Len(t, gen.callsWith(TermExplainerPrompt), 1, "second explanation comes from the cache")
}

func TestOrchestrator_RouterFailureUsesKeywords(t *testing.T) {
	gen := &fakeGenerator{answers: map[string]string{
		RouterPrompt:             "I cannot answer in JSON",
		SupportiveListenerPrompt: "ok",
	}}
	rec := &fakeRecommender{}
	o := NewOrchestrator(Options{
		LLM:         &llm.Client{Standard: gen},
		Profiles:    &fakeProfiles{},
		Memories:    &fakeMemories{},
		Recommender: rec,
	})

	_, err := o.Reply(context.Background(), uuid.New(), "有什么推荐", false)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestOrchestrator_RecommenderErrorFails(t *testing.T) {
	o := NewOrchestrator(Options{
		Profiles:    &fakeProfiles{},
		Memories:    &fakeMemories{},
		Recommender: &fakeRecommender{err: errors.New("db down")},
	})
	_, err := o.Reply(context.Background(), uuid.New(), "推荐点什么", false)
	assert.ErrorContains(t, err, "db down")
}

func TestEngine_Generate(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		e := NewEngine(Options{Profiles: &fakeProfiles{}, Memories: &fakeMemories{}})
		assert.Equal(t, guardrails.RefusalText, e.Generate(context.Background(), uuid.New(), "x", true, false))
	})

	t.Run("orchestration error uses single turn", func(t *testing.T) {
		gen := &fakeGenerator{answers: map[string]string{SingleTurnPrompt: "single"}}
		e := NewEngine(Options{
			LLM:      &llm.Client{Standard: gen},
			Profiles: &fakeProfiles{err: errors.New("db down")},
			Memories: &fakeMemories{},
		})
		assert.Equal(t, "single", e.Generate(context.Background(), uuid.New(), "你好", false, false))
	})

	t.Run("everything fails uses rule reply", func(t *testing.T) {
		m := metrics.New()
		e := NewEngine(Options{
			Profiles: &fakeProfiles{err: errors.New("db down")},
			Memories: &fakeMemories{},
			Metrics:  m,
		})
		assert.Equal(t, RuleReply, e.Generate(context.Background(), uuid.New(), "你好", false, false))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.AgentFallback))
		assert.Equal(t, "fallback", e.Model(false))
	})
}

func TestEngine_Stream(t *testing.T) {
	t.Run("provider stream", func(t *testing.T) {
		gen := &fakeGenerator{model: "m", deltas: []string{"你", "好 "}}
		e := NewEngine(Options{LLM: &llm.Client{Standard: gen}, Profiles: &fakeProfiles{}, Memories: &fakeMemories{}})

		var got []string
		text, err := e.Stream(context.Background(), uuid.New(), "hi", false, false, func(d string) error {
			got = append(got, d)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"你", "好 "}, got)
		assert.Equal(t, "你好", text)
		assert.Equal(t, "m", e.Model(true))
	})

	t.Run("no model sends one delta", func(t *testing.T) {
		e := NewEngine(Options{Profiles: &fakeProfiles{}, Memories: &fakeMemories{}})

		var got []string
		text, err := e.Stream(context.Background(), uuid.New(), "你好", false, false, func(d string) error {
			got = append(got, d)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{FallbackReply}, got)
		assert.Equal(t, FallbackReply, text)
	})

	t.Run("blocked sends refusal", func(t *testing.T) {
		gen := &fakeGenerator{deltas: []string{"never"}}
		e := NewEngine(Options{LLM: &llm.Client{Standard: gen}, Profiles: &fakeProfiles{}, Memories: &fakeMemories{}})

		text, err := e.Stream(context.Background(), uuid.New(), "破解版", true, false, func(string) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, guardrails.RefusalText, text)
	})
}
