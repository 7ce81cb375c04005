package endpoints

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/guardrails"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
)

func createConversation(t *testing.T, s *server.Server, token string, title string) model.Conversation {
	t.Helper()
	w := doRequest(t, s, "POST", "/conversations", token, map[string]string{"title": title})
	assertStatus(t, w, http.StatusOK)
	var conv model.Conversation
	decodeBody(t, w, &conv)
	return conv
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := createTestUser(t, s, "erin@qq.com", false)
	token := tokenFor(t, s, owner)

	conv := createConversation(t, s, token, "  第一次聊天  ")
	require.NotNil(t, conv.Title)
	assert.Equal(t, "第一次聊天", *conv.Title)
	assert.Equal(t, owner.ID, conv.UserID)

	t.Run("empty body creates an untitled conversation", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/conversations", token, nil)
		assertStatus(t, w, http.StatusOK)
		var untitled model.Conversation
		decodeBody(t, w, &untitled)
		assert.Nil(t, untitled.Title)
	})

	t.Run("list", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/conversations", token, nil)
		assertStatus(t, w, http.StatusOK)
		var convs []model.Conversation
		decodeBody(t, w, &convs)
		assert.Len(t, convs, 2)
	})

	t.Run("rename", func(t *testing.T) {
		w := doRequest(t, s, "PATCH", "/conversations/"+conv.ID.String(), token, map[string]string{"title": "改名"})
		assertStatus(t, w, http.StatusOK)
		var renamed model.Conversation
		decodeBody(t, w, &renamed)
		require.NotNil(t, renamed.Title)
		assert.Equal(t, "改名", *renamed.Title)
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(t, s, "DELETE", "/conversations/"+conv.ID.String(), token, nil)
		assertStatus(t, w, http.StatusOK)
		assert.JSONEq(t, `{"deleted":true}`, w.Body.String())

		w = doRequest(t, s, "GET", "/conversations/"+conv.ID.String()+"/messages", token, nil)
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "会话不存在", errorMessage(t, w))
	})
}

func TestConversationOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := createTestUser(t, s, "frank@qq.com", false)
	other := createTestUser(t, s, "grace@qq.com", false)
	conv := createConversation(t, s, tokenFor(t, s, owner), "private")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"list messages", "GET", "/conversations/" + conv.ID.String() + "/messages", nil, http.StatusForbidden},
		{"post message", "POST", "/conversations/" + conv.ID.String() + "/messages", map[string]string{"content": "hi"}, http.StatusForbidden},
		{"delete", "DELETE", "/conversations/" + conv.ID.String(), nil, http.StatusForbidden},
		{"unknown id", "GET", "/conversations/00000000-0000-0000-0000-000000000001/messages", nil, http.StatusNotFound},
		{"malformed id", "GET", "/conversations/not-a-uuid/messages", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, tt.method, tt.path, tokenFor(t, s, other), tt.body)
			assertStatus(t, w, tt.status)
		})
	}
}

func TestPostMessage(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "heidi@qq.com", false)
	token := tokenFor(t, s, user)
	conv := createConversation(t, s, token, "")
	path := "/conversations/" + conv.ID.String() + "/messages"

	w := doRequest(t, s, "POST", path, token, map[string]string{"content": "我喜欢治愈系的番剧"})
	assertStatus(t, w, http.StatusOK)
	var pair []model.Message
	decodeBody(t, w, &pair)
	require.Len(t, pair, 2)
	assert.Equal(t, model.RoleUser, pair[0].Role)
	assert.Equal(t, "我喜欢治愈系的番剧", pair[0].Content)
	assert.Equal(t, model.RoleAssistant, pair[1].Role)
	assert.NotEmpty(t, pair[1].Content)

	t.Run("preference is remembered", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/memory?kind=pref", token, nil)
		assertStatus(t, w, http.StatusOK)
		var items []model.MemoryItem
		decodeBody(t, w, &items)
		require.Len(t, items, 1)
		assert.Contains(t, items[0].Content, "治愈系")
	})

	t.Run("piracy request is refused", func(t *testing.T) {
		w := doRequest(t, s, "POST", path, token, map[string]string{"content": "求个百度云链接"})
		assertStatus(t, w, http.StatusOK)
		var pair []model.Message
		decodeBody(t, w, &pair)
		require.Len(t, pair, 2)
		assert.True(t, pair[0].IsBlocked)
		assert.Equal(t, guardrails.RefusalText, pair[1].Content)
	})

	t.Run("messages are listed oldest first", func(t *testing.T) {
		w := doRequest(t, s, "GET", path, token, nil)
		assertStatus(t, w, http.StatusOK)
		var msgs []model.Message
		decodeBody(t, w, &msgs)
		require.Len(t, msgs, 4)
		assert.Equal(t, "我喜欢治愈系的番剧", msgs[0].Content)
	})

	t.Run("delete one message", func(t *testing.T) {
		w := doRequest(t, s, "DELETE", path+"/"+pair[0].ID.String(), token, nil)
		assertStatus(t, w, http.StatusOK)

		w = doRequest(t, s, "DELETE", path+"/"+pair[0].ID.String(), token, nil)
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "消息不存在", errorMessage(t, w))
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		w := doRequest(t, s, "POST", path, token, map[string]string{"content": ""})
		assertStatus(t, w, http.StatusUnprocessableEntity)
	})
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestStreamMessage(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "ivan@qq.com", false)
	token := tokenFor(t, s, user)
	conv := createConversation(t, s, token, "")

	w := doRequest(t, s, "POST", "/conversations/"+conv.ID.String()+"/messages/stream", token, map[string]interface{}{
		"content":    "介绍一下你自己",
		"web_search": true,
	})
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	events := readEvents(t, w.Body.String())
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, "meta", events[0].name)
	assert.Equal(t, "delta", events[1].name)
	assert.Equal(t, "done", events[len(events)-1].name)

	var meta StreamMeta
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &meta))
	assert.Equal(t, conv.ID, meta.ConversationID)
	assert.Equal(t, "fallback", meta.Model)
	assert.True(t, meta.WebSearch.Enabled)
	assert.False(t, meta.WebSearch.Configured)

	var done StreamDone
	require.NoError(t, json.Unmarshal([]byte(events[len(events)-1].data), &done))
	assert.NotEmpty(t, done.AssistantContent)

	msgs, err := s.ConversationsStore.ListMessages(conv.ID, false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, meta.UserMessageID, msgs[0].ID)
	assert.Equal(t, done.AssistantMessageID, msgs[1].ID)
	assert.Equal(t, done.AssistantContent, msgs[1].Content)
}
