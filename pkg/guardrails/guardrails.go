// Package guardrails detects requests for pirated downloads, cracks and
// other ways around paying for a work.
package guardrails

import "strings"

// Strong signals block on their own.
var strongSignals = []string{
	"下载", "网盘", "百度云", "蓝奏", "磁力", "种子", "torrent", "bt",
	"破解", "crack", "激活码", "序列号", "解压密码", "直链",
}

// Weak signals only block together with a request cue.
var weakSignals = []string{"资源", "免安装", "全CG", "补丁", "汉化补丁"}

var requestCues = []string{"给个", "求", "发我", "链接", "link", "在哪下", "哪里下", "下载"}

// Result of checking one message
type Result struct {
	Blocked bool
	// Matched lists the strong keywords found, then the weak ones.
	Matched []string
}

// Check inspects text. Latin keywords match case-insensitively.
func Check(text string) Result {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Result{}
	}

	strong := matching(t, strongSignals)
	weak := matching(t, weakSignals)

	blocked := len(strong) > 0
	if !blocked && len(weak) > 0 {
		blocked = len(matching(t, requestCues)) > 0
	}
	return Result{Blocked: blocked, Matched: append(strong, weak...)}
}

func matching(t string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

// RefusalText is the reply stored for a blocked request.
const RefusalText = "我不能提供盗版下载、破解、激活码或绕过付费的内容。\n\n" +
	"如果你愿意，我可以改为帮你：\n" +
	"- 介绍作品剧情/角色（不剧透）\n" +
	"- 推荐同类型作品\n" +
	"- 提供正规购买/游玩渠道的方向（如 Steam / DLsite 等）\n\n" +
	"你想了解哪一部作品？"

// ShortRefusalText is the refusal used inside an agent reply.
const ShortRefusalText = "我不能提供盗版下载、破解、激活码或绕过付费的内容。\n\n" +
	"如果你愿意，我可以帮你：介绍作品信息（不剧透）、解释术语、推荐同类作品，或指引正规购买渠道方向。\n" +
	"你想了解哪一部作品？"
