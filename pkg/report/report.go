// Package report builds the monthly and weekly activity reports.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// ErrInvalidPeriod is returned for a year, month or day that names no date
var ErrInvalidPeriod = errors.New("invalid report period")

const (
	keywordLimit    = 6
	monthlyMemories = 5
	weeklyMemories  = 4
	none            = "（暂无）"
)

// Period is a half open date range [Start, End) in UTC
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return p.Start.Format(time.DateOnly) + " ~ " + p.End.Format(time.DateOnly)
}

func validDate(year, month, day int) bool {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

// MonthPeriod covers the calendar month
func MonthPeriod(year, month int) (Period, error) {
	if !validDate(year, month, 1) {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// WeekPeriod covers the week, Monday first, holding the date
func WeekPeriod(year, month, day int) (Period, error) {
	if !validDate(year, month, day) {
		return Period{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidPeriod, year, month, day)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	back := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -back)
	return Period{Start: start, End: start.AddDate(0, 0, 7)}, nil
}

type bucket struct {
	label string
	keys  []string
}

var buckets = []bucket{
	{"剧情", []string{"剧情", "展开", "反转", "伏笔", "设定", "世界观"}},
	{"角色", []string{"角色", "女主", "男主", "人设", "cp", "恋爱"}},
	{"动画", []string{"动画", "番", "追番", "op", "ed", "ova", "剧场版"}},
	{"漫画", []string{"漫画", "分镜", "连载", "话", "章节"}},
	{"轻小说", []string{"轻小说", "轻改", "文库", "卷"}},
	{"画风", []string{"画风", "立绘", "原画", "cg"}},
	{"音乐", []string{"音乐", "bgm", "配乐", "op", "ed"}},
	{"配音", []string{"配音", "声优", "cv"}},
	{"系统", []string{"系统", "ui", "选项", "快进", "回看", "存档"}},
	{"纯爱", []string{"纯爱"}},
	{"致郁", []string{"致郁", "刀", "胃痛"}},
	{"电波", []string{"电波"}},
	{"猎奇", []string{"猎奇", "重口"}},
	{"NTR", []string{"ntr", "牛头人"}},
	{"R18", []string{"r18", "h scene", "hscene", "黄油"}},
}

// TopKeywords counts, per bucket, the texts mentioning any of its keys and
// returns up to limit labels by count. Ties keep bucket order.
func TopKeywords(texts []string, limit int) []string {
	lowered := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			lowered = append(lowered, strings.ToLower(t))
		}
	}

	type hit struct {
		label string
		count int
	}
	var hits []hit
	for _, b := range buckets {
		n := 0
		for _, t := range lowered {
			for _, k := range b.keys {
				if strings.Contains(t, k) {
					n++
					break
				}
			}
		}
		if n > 0 {
			hits = append(hits, hit{label: b.label, count: n})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].count > hits[j].count })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	labels := make([]string, 0, len(hits))
	for _, h := range hits {
		labels = append(labels, h.label)
	}
	return labels
}

func keywordText(keywords []string) string {
	if len(keywords) == 0 {
		return none
	}
	return strings.Join(keywords, "、")
}

func memoryBlock(items []model.MemoryItem) string {
	if len(items) == 0 {
		return "- " + none
	}
	lines := make([]string, 0, len(items))
	for _, m := range items {
		lines = append(lines, fmt.Sprintf("- [%s] %s：%s", m.Kind, m.Title, m.Content))
	}
	return strings.Join(lines, "\n")
}

// MonthlyText renders the monthly template
func MonthlyText(p Period, activity *store.Activity, memories []model.MemoryItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "本月 ACGN 资讯回顾（占位）（%s）：\n", p)
	fmt.Fprintf(&b, "- 对话活跃：创建会话 %d 次，消息 %d 条。\n", activity.Conversations, len(activity.Contents))
	fmt.Fprintf(&b, "- 本月关键词：%s\n", keywordText(TopKeywords(activity.Contents, keywordLimit)))
	b.WriteString("- 评测：已从本 Demo 中移除。\n")
	b.WriteString("\n【记忆摘要（偏好/避雷/关注）】\n")
	b.WriteString(memoryBlock(memories))
	b.WriteString("\n\n【下月建议（占位）】\n")
	b.WriteString("1) 选 1 个你最在意的方向（轻松/强剧情/强演出/电波/致郁/猎奇/推理），我可以按偏好出一份清单。\n")
	b.WriteString("2) 提供 1~3 部你喜欢/踩雷的作品（动画/漫画/轻小说/游戏均可），我会把偏好写进记忆并提升推荐命中率。")
	return b.String()
}

// WeeklyText renders the weekly template
func WeeklyText(p Period, activity *store.Activity, memories []model.MemoryItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "本周 ACGN 周报（占位）（%s）：\n", p)
	fmt.Fprintf(&b, "- 本周关键词：%s\n", keywordText(TopKeywords(activity.Contents, keywordLimit)))
	fmt.Fprintf(&b, "- 对话消息数：%d\n", len(activity.Contents))
	b.WriteString("\n【本周偏好/避雷摘要】\n")
	b.WriteString(memoryBlock(memories))
	b.WriteString("\n\n【下周想了解（占位）】\n")
	b.WriteString("- 你想要：轻松日常 / 强剧情 / 强演出 / 纯爱 / 致郁 / 电波 / 猎奇 / 推理？\n")
	b.WriteString("- 你接受剧透吗？更偏好动画/漫画/轻小说/游戏哪一种？（如果是游戏，平台偏好是什么？）")
	return b.String()
}

// Generator builds and stores reports
type Generator struct {
	conversations store.ConversationsStore
	memories      store.MemoryStore
	reports       store.ReportsStore
	now           func() time.Time
}

// NewGenerator creates a Generator
func NewGenerator(conversations store.ConversationsStore, memories store.MemoryStore, reports store.ReportsStore) *Generator {
	return &Generator{
		conversations: conversations,
		memories:      memories,
		reports:       reports,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for default periods
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Monthly stores the report for year and month. Zero values default to the
// current date.
func (g *Generator) Monthly(userID uuid.UUID, year, month int) (*model.Report, error) {
	today := g.now().UTC()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	p, err := MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return g.build(userID, model.ReportKindMonthly, p, monthlyMemories, MonthlyText)
}

// Weekly stores the report for the week holding the date. Zero values
// default to the current date.
func (g *Generator) Weekly(userID uuid.UUID, year, month, day int) (*model.Report, error) {
	today := g.now().UTC()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if day == 0 {
		day = today.Day()
	}
	p, err := WeekPeriod(year, month, day)
	if err != nil {
		return nil, err
	}
	return g.build(userID, model.ReportKindWeekly, p, weeklyMemories, WeeklyText)
}

func (g *Generator) build(
	userID uuid.UUID,
	kind model.ReportKind,
	p Period,
	memoryLimit int,
	render func(Period, *store.Activity, []model.MemoryItem) string,
) (*model.Report, error) {
	activity, err := g.conversations.Activity(userID, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("failed to collect activity: %w", err)
	}
	memories, err := g.memories.ListMemory(userID, "", memoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	rep := &model.Report{
		UserID:      userID,
		Kind:        kind,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		ReportText:  render(p, activity, memories),
	}
	if err := g.reports.CreateReport(rep); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	return rep, nil
}
