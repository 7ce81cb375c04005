package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		blocked bool
		matched []string
	}{
		{name: "empty", text: "   "},
		{name: "ordinary question", text: "命运石之门讲了什么？"},
		{name: "strong alone", text: "哪里有百度云", blocked: true, matched: []string{"百度云"}},
		{name: "several strong", text: "求破解和激活码", blocked: true, matched: []string{"破解", "激活码"}},
		{name: "latin is case insensitive", text: "Any TORRENT?", blocked: true, matched: []string{"torrent"}},
		{name: "weak without cue", text: "这个游戏的汉化补丁质量如何", matched: []string{"补丁", "汉化补丁"}},
		{name: "weak with cue", text: "求个资源", blocked: true, matched: []string{"资源"}},
		{name: "weak with link cue", text: "全cg 的 link 有吗", blocked: true, matched: []string{"全CG"}},
		{name: "strong then weak order", text: "资源网盘", blocked: true, matched: []string{"网盘", "资源"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.text)
			assert.Equal(t, tt.blocked, got.Blocked)
			assert.Equal(t, tt.matched, got.Matched)
		})
	}
}
