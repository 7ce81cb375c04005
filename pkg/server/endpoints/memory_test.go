package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

func TestMemoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "judy@qq.com", false)
	token := tokenFor(t, s, user)

	w := doRequest(t, s, "POST", "/memory", token, map[string]interface{}{
		"title":   "喜欢的类型",
		"content": "悬疑推理",
	})
	assertStatus(t, w, http.StatusOK)
	var item model.MemoryItem
	decodeBody(t, w, &item)
	assert.Equal(t, model.MemoryKindFact, item.Kind)
	assert.Equal(t, user.ID, item.UserID)

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		w := doRequest(t, s, "PUT", "/memory/"+item.ID.String(), token, map[string]interface{}{
			"content":    "悬疑推理和科幻",
			"confidence": 0.9,
		})
		assertStatus(t, w, http.StatusOK)
		var updated model.MemoryItem
		decodeBody(t, w, &updated)
		assert.Equal(t, "喜欢的类型", updated.Title)
		assert.Equal(t, "悬疑推理和科幻", updated.Content)
		require.NotNil(t, updated.Confidence)
		assert.InDelta(t, 0.9, *updated.Confidence, 1e-9)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		w := doRequest(t, s, "PUT", "/memory/"+item.ID.String(), token, map[string]interface{}{"confidence": 2})
		assertStatus(t, w, http.StatusUnprocessableEntity)
	})

	t.Run("kind filter", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/memory?kind=pref", token, nil)
		assertStatus(t, w, http.StatusOK)
		var items []model.MemoryItem
		decodeBody(t, w, &items)
		assert.Empty(t, items)

		w = doRequest(t, s, "GET", "/memory?kind=fact&limit=500", token, nil)
		assertStatus(t, w, http.StatusOK)
		decodeBody(t, w, &items)
		assert.Len(t, items, 1)
	})

	t.Run("bad limit", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/memory?limit=abc", token, nil)
		assertStatus(t, w, http.StatusUnprocessableEntity)
	})

	t.Run("other users cannot see it", func(t *testing.T) {
		other := tokenFor(t, s, createTestUser(t, s, "ken@qq.com", false))
		w := doRequest(t, s, "PUT", "/memory/"+item.ID.String(), other, map[string]string{"title": "x"})
		assertStatus(t, w, http.StatusNotFound)
		assert.Equal(t, "记忆不存在", errorMessage(t, w))

		w = doRequest(t, s, "DELETE", "/memory/"+item.ID.String(), other, nil)
		assertStatus(t, w, http.StatusNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(t, s, "DELETE", "/memory/"+item.ID.String(), token, nil)
		assertStatus(t, w, http.StatusOK)
		assert.JSONEq(t, `{"deleted":true}`, w.Body.String())

		w = doRequest(t, s, "DELETE", "/memory/"+item.ID.String(), token, nil)
		assertStatus(t, w, http.StatusNotFound)
	})
}
