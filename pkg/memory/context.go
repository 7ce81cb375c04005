package memory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const (
	contextTagLimit    = 8
	contextMemoryLimit = 5
)

// BuildContext renders the profile name, a few preferred tags and the latest
// memories as prompt text. It returns "" when there is nothing to say.
func BuildContext(profiles store.ProfilesStore, memories store.MemoryStore, userID uuid.UUID) (string, error) {
	var parts []string

	profile, err := profiles.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if profile != nil {
		if profile.DisplayName != nil && strings.TrimSpace(*profile.DisplayName) != "" {
			parts = append(parts, "用户称呼/昵称："+*profile.DisplayName)
		}
		if tags := profile.PreferredTags(); len(tags) > 0 {
			if len(tags) > contextTagLimit {
				tags = tags[:contextTagLimit]
			}
			parts = append(parts, "偏好标签："+strings.Join(tags, "、"))
		}
	}

	items, err := memories.ListMemory(userID, "", contextMemoryLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load memories: %w", err)
	}
	if len(items) > 0 {
		lines := make([]string, 0, len(items))
		for _, m := range items {
			lines = append(lines, fmt.Sprintf("- [%s] %s：%s", m.Kind, m.Title, m.Content))
		}
		parts = append(parts, "长期记忆（最新）：\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n"), nil
}

// WrapPrompt prefixes the user's text with memory context when there is any.
func WrapPrompt(memoryContext, text string) string {
	if strings.TrimSpace(memoryContext) == "" {
		return text
	}
	return "【背景信息（系统记忆，供参考）】\n" + memoryContext + "\n\n【用户输入】\n" + text
}
