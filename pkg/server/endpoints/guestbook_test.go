package endpoints

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestbookThreads(t *testing.T) {
	s := newTestServer(t)
	alice := createTestUser(t, s, "rita@qq.com", false)
	bob := createTestUser(t, s, "sam@qq.com", false)
	aliceToken, bobToken := tokenFor(t, s, alice), tokenFor(t, s, bob)

	w := doRequest(t, s, "POST", "/guestbook", aliceToken, map[string]string{"content": "  大家好  "})
	assertStatus(t, w, http.StatusOK)
	var root GuestbookNode
	decodeBody(t, w, &root)
	assert.Equal(t, "大家好", root.Content)
	assert.Equal(t, "rita", root.Username)
	assert.True(t, root.CanDelete)
	assert.NotNil(t, root.Replies)

	w = doRequest(t, s, "POST", "/guestbook", bobToken, map[string]interface{}{"content": "你好", "parent_id": root.ID})
	assertStatus(t, w, http.StatusOK)
	var reply GuestbookNode
	decodeBody(t, w, &reply)

	w = doRequest(t, s, "POST", "/guestbook", aliceToken, map[string]interface{}{"content": "谢谢", "parent_id": reply.ID})
	assertStatus(t, w, http.StatusOK)

	t.Run("tree as seen by bob", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/guestbook", bobToken, nil)
		assertStatus(t, w, http.StatusOK)
		var nodes []GuestbookNode
		decodeBody(t, w, &nodes)
		require.Len(t, nodes, 1)
		assert.False(t, nodes[0].CanDelete)
		require.Len(t, nodes[0].Replies, 1)
		assert.True(t, nodes[0].Replies[0].CanDelete)
		require.Len(t, nodes[0].Replies[0].Replies, 1)
		assert.Equal(t, "谢谢", nodes[0].Replies[0].Replies[0].Content)
		assert.Empty(t, nodes[0].Replies[0].Replies[0].Replies)
	})

	t.Run("inbox holds replies from others only", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/guestbook/inbox", aliceToken, nil)
		assertStatus(t, w, http.StatusOK)
		var items []InboxItem
		decodeBody(t, w, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "你好", items[0].Content)
		assert.Equal(t, alice.ID, items[0].ParentUserID)
		assert.Equal(t, "大家好", items[0].ParentContent)

		future := time.Now().UTC().Add(time.Hour).Format("2006-01-02T15:04:05")
		w = doRequest(t, s, "GET", "/guestbook/inbox?after="+future, aliceToken, nil)
		assertStatus(t, w, http.StatusOK)
		items = nil
		decodeBody(t, w, &items)
		assert.Empty(t, items)
	})

	t.Run("validation", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/guestbook", aliceToken, map[string]string{"content": "   "})
		assertStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "内容不能为空", errorMessage(t, w))

		w = doRequest(t, s, "POST", "/guestbook", aliceToken, map[string]string{"content": strings.Repeat("长", 801)})
		assertStatus(t, w, http.StatusUnprocessableEntity)

		w = doRequest(t, s, "POST", "/guestbook", aliceToken, map[string]interface{}{
			"content":   "hi",
			"parent_id": "00000000-0000-0000-0000-000000000009",
		})
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "要回复的留言不存在", errorMessage(t, w))
	})

	t.Run("only the author or an admin can delete", func(t *testing.T) {
		w := doRequest(t, s, "DELETE", "/guestbook/"+root.ID.String(), bobToken, nil)
		assertStatus(t, w, http.StatusForbidden)
		assert.Equal(t, "无权限删除", errorMessage(t, w))

		admin := tokenFor(t, s, createTestUser(t, s, "tom@qq.com", true))
		w = doRequest(t, s, "DELETE", "/guestbook/"+reply.ID.String(), admin, nil)
		assertStatus(t, w, http.StatusOK)
		assert.JSONEq(t, `{"detail":"ok"}`, w.Body.String())

		w = doRequest(t, s, "DELETE", "/guestbook/"+reply.ID.String(), admin, nil)
		assertStatus(t, w, http.StatusNotFound)
	})
}

func TestParseAfter(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		raw  string
		want *time.Time
	}{
		{"", nil},
		{"yesterday", nil},
		{"2026-01-02T03:04:05Z", &want},
		{"2026-01-02T11:04:05+08:00", &want},
		{"2026-01-02T03:04:05", &want},
		{"2026-01-02 03:04:05", &want},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseAfter(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}
