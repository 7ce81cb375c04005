// Package memory extracts long-term memories from user messages and renders
// them back into prompt context.
package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const (
	TitleLikes    = "偏好/喜欢"
	TitleDislikes = "避雷/不喜欢"
	TitleWatching = "关注的作品/类型"

	prefConfidence     = 0.55
	watchingConfidence = 0.45
)

var (
	prefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:我喜欢|我比较喜欢|偏好|爱玩|喜欢玩)(.{1,40})`),
		regexp.MustCompile(`(?:我不喜欢|不太喜欢|雷点|避雷)(.{1,40})`),
	}
	watchingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:想玩|想推|求推荐|有没有类似)(.{1,30})`),
	}
	dislikeMarkers = []string{"不喜欢", "雷点", "避雷"}
)

// Draft is a memory item that has not been stored yet
type Draft struct {
	Kind       string
	Title      string
	Content    string
	Confidence float64
}

// ExtractDrafts finds likes, dislikes and the first mentioned title or genre
// the user is looking for. Drafts are unique by (kind, title).
func ExtractDrafts(text string) []Draft {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}

	var drafts []Draft
	for _, pat := range prefPatterns {
		m := pat.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		val := strings.TrimSpace(m[1])
		if val == "" {
			continue
		}
		snippet := truncate(val, 60)
		if containsAny(m[0], dislikeMarkers) {
			drafts = append(drafts, Draft{Kind: model.MemoryKindPref, Title: TitleDislikes, Content: "用户不喜欢/避雷：" + snippet, Confidence: prefConfidence})
		} else {
			drafts = append(drafts, Draft{Kind: model.MemoryKindPref, Title: TitleLikes, Content: "用户偏好：" + snippet, Confidence: prefConfidence})
		}
	}

	for _, pat := range watchingPatterns {
		m := pat.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		val := strings.TrimSpace(m[1])
		if val == "" {
			continue
		}
		drafts = append(drafts, Draft{Kind: model.MemoryKindFact, Title: TitleWatching, Content: "用户近期关注：" + truncate(val, 30), Confidence: watchingConfidence})
		break
	}

	seen := make(map[[2]string]bool, len(drafts))
	out := drafts[:0]
	for _, d := range drafts {
		key := [2]string{d.Kind, d.Title}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// Upsert writes drafts for the user, updating the live item with the same
// kind and title. It returns the number of items written.
func Upsert(memories store.MemoryStore, userID uuid.UUID, drafts []Draft) (int, error) {
	written := 0
	for _, d := range drafts {
		kind := strings.TrimSpace(d.Kind)
		if kind == "" {
			kind = model.MemoryKindFact
		}
		title := strings.TrimSpace(d.Title)
		content := strings.TrimSpace(d.Content)
		if title == "" || content == "" {
			continue
		}
		confidence := d.Confidence
		item := &model.MemoryItem{
			UserID:     userID,
			Kind:       kind,
			Title:      title,
			Content:    content,
			Confidence: &confidence,
		}
		if err := memories.UpsertMemory(item); err != nil {
			return written, fmt.Errorf("failed to upsert memory %q: %w", title, err)
		}
		written++
	}
	return written, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
