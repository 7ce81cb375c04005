package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Decision says which tools to run before the final reply
type Decision struct {
	NeedsRecommendations bool    `json:"needs_recommendations"`
	NeedsTermExplain     bool    `json:"needs_term_explain"`
	NeedsOverview        bool    `json:"needs_overview"`
	Term                 *string `json:"term"`
}

// TermOrEmpty returns the term to explain, or ""
func (d Decision) TermOrEmpty() string {
	if d.Term == nil {
		return ""
	}
	return strings.TrimSpace(*d.Term)
}

var (
	recommendationHints = []string{
		"推荐", "类似", "同类", "还有", "安利", "入坑", "好看", "好玩",
		"哪里买", "平台", "追番", "从哪开始", "观看顺序",
	}
	termHints = []string{
		"是什么", "解释", "原理", "什么意思", "术语", "OP", "ED", "OVA",
		"剧场版", "轻改", "共通线", "个人线", "FD", "TE", "NE", "拔作", "纯爱",
	}
	overviewHints = []string{"整理", "总结", "速览", "一页", "设定", "世界观", "角色", "看点", "入坑"}
)

const keywordTermRunes = 24

// KeywordDecide routes by hint keywords. The term is the head of the text.
func KeywordDecide(text string) Decision {
	t := strings.TrimSpace(text)
	d := Decision{
		NeedsRecommendations: containsAny(t, recommendationHints),
		NeedsTermExplain:     containsAny(t, termHints),
		NeedsOverview:        containsAny(t, overviewHints),
	}
	if d.NeedsTermExplain && t != "" {
		term := t
		if r := []rune(t); len(r) > keywordTermRunes {
			term = string(r[:keywordTermRunes])
		}
		d.Term = &term
	}
	return d
}

// ParseDecision reads the first {...} span of a model answer. Models
// sometimes wrap the object in prose or code fences.
func ParseDecision(raw string) (Decision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Decision{}, fmt.Errorf("no JSON object in router output")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return Decision{}, fmt.Errorf("invalid router JSON: %w", err)
	}

	d := Decision{
		NeedsRecommendations: truthy(obj["needs_recommendations"]),
		NeedsTermExplain:     truthy(obj["needs_term_explain"]),
		NeedsOverview:        truthy(obj["needs_overview"]),
	}
	if v, ok := obj["term"]; ok && v != nil {
		if term := strings.TrimSpace(fmt.Sprint(v)); term != "" {
			d.Term = &term
		}
	}
	return d, nil
}

// decide asks the model when there is one and falls back to keywords when
// the call fails or the answer is not usable.
func (o *Orchestrator) decide(ctx context.Context, text string) Decision {
	if o.llm == nil {
		return KeywordDecide(text)
	}
	raw, err := o.llm.Standard.Chat(ctx, RouterPrompt, "用户输入："+text+"\n请输出 JSON：")
	if err != nil {
		o.logger.Debug("router llm call failed", zap.Error(err))
		return KeywordDecide(text)
	}
	d, err := ParseDecision(raw)
	if err != nil {
		o.logger.Debug("router output unusable", zap.Error(err))
		return KeywordDecide(text)
	}
	return d
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s != "" && s != "false" && s != "0"
	default:
		return false
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
