package endpoints

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlow(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "POST", "/auth/register/request", "", map[string]string{"email": " Alice@QQ.com "})
	assertStatus(t, w, http.StatusOK)
	var sent CodeSentResponse
	decodeBody(t, w, &sent)
	require.NotEmpty(t, sent.DebugCode)
	assert.Contains(t, sent.Detail, "10 分钟")

	t.Run("second request inside the cooldown is throttled", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/register/request", "", map[string]string{"email": "alice@qq.com"})
		assertStatus(t, w, http.StatusTooManyRequests)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("wrong code", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/register/confirm", "", map[string]string{
			"email": "alice@qq.com", "code": "000000x", "password": testPassword,
		})
		assertStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "验证码错误", errorMessage(t, w))
	})

	t.Run("correct code creates the account", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/register/confirm", "", map[string]string{
			"email": "alice@qq.com", "code": sent.DebugCode, "password": testPassword,
		})
		assertStatus(t, w, http.StatusOK)
		var tok TokenResponse
		decodeBody(t, w, &tok)
		assert.Equal(t, "bearer", tok.TokenType)

		me := doRequest(t, s, "GET", "/users/me", tok.AccessToken, nil)
		assertStatus(t, me, http.StatusOK)
		assert.Contains(t, me.Body.String(), `"username":"alice"`)
		assert.NotContains(t, me.Body.String(), "hashed_password")
	})

	t.Run("registered email is rejected", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/register/request", "", map[string]string{"email": "alice@qq.com"})
		assertStatus(t, w, http.StatusConflict)
		assert.Equal(t, "邮箱已注册", errorMessage(t, w))
	})
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		msg    string
	}{
		{"disallowed domain", "/auth/register/request", map[string]string{"email": "bob@gmail.com"}, http.StatusUnprocessableEntity, "qq.com"},
		{"missing body", "/auth/register/request", nil, http.StatusUnprocessableEntity, "request body is required"},
		{"bad json", "/auth/register/request", "{", http.StatusUnprocessableEntity, "invalid JSON body"},
		{"short password", "/auth/register/confirm", map[string]string{"email": "bob@qq.com", "code": "123456", "password": "x"}, http.StatusUnprocessableEntity, "password must be at least 6"},
		{"no code requested", "/auth/register/confirm", map[string]string{"email": "bob@qq.com", "code": "123456", "password": testPassword}, http.StatusBadRequest, "请先获取验证码"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "POST", tt.path, "", tt.body)
			assertStatus(t, w, tt.status)
			assert.Contains(t, errorMessage(t, w), tt.msg)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	createTestUser(t, s, "carol@qq.com", false)

	t.Run("json body", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/login", "", map[string]string{"email": "carol@qq.com", "password": testPassword})
		assertStatus(t, w, http.StatusOK)
		var tok TokenResponse
		decodeBody(t, w, &tok)
		assert.NotEmpty(t, tok.AccessToken)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"username": {"carol@qq.com"}, "password": {testPassword}}
		req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assertStatus(t, w, http.StatusOK)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/login", "", map[string]string{"username": "carol@qq.com", "password": "nope-nope"})
		assertStatus(t, w, http.StatusUnauthorized)
		assert.Equal(t, "账号或密码错误", errorMessage(t, w))
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/login", "", map[string]string{"username": "carol@qq.com"})
		assertStatus(t, w, http.StatusUnprocessableEntity)
	})
}

func TestGuestLogin(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "POST", "/auth/guest", "", nil)
	assertStatus(t, w, http.StatusOK)
	var guest GuestTokenResponse
	decodeBody(t, w, &guest)
	assert.True(t, guest.IsGuest)
	assert.True(t, strings.HasSuffix(guest.Email, "@guest.local"))

	me := doRequest(t, s, "GET", "/users/me", guest.AccessToken, nil)
	assertStatus(t, me, http.StatusOK)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	createTestUser(t, s, "dave@qq.com", false)

	t.Run("unknown email gets the same answer without a code", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/password-reset/request", "", map[string]string{"email": "nobody@qq.com"})
		assertStatus(t, w, http.StatusOK)
		var sent CodeSentResponse
		decodeBody(t, w, &sent)
		assert.Empty(t, sent.DebugCode)
	})

	w := doRequest(t, s, "POST", "/auth/password-reset/request", "", map[string]string{"email": "dave@qq.com"})
	assertStatus(t, w, http.StatusOK)
	var sent CodeSentResponse
	decodeBody(t, w, &sent)
	require.NotEmpty(t, sent.DebugCode)

	w = doRequest(t, s, "POST", "/auth/password-reset/confirm", "", map[string]string{
		"email": "dave@qq.com", "code": sent.DebugCode, "new_password": "brand-new-pass",
	})
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "密码已重置")

	old := doRequest(t, s, "POST", "/auth/login", "", map[string]string{"username": "dave@qq.com", "password": testPassword})
	assertStatus(t, old, http.StatusUnauthorized)
	fresh := doRequest(t, s, "POST", "/auth/login", "", map[string]string{"username": "dave@qq.com", "password": "brand-new-pass"})
	assertStatus(t, fresh, http.StatusOK)

	t.Run("code is single use", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/auth/password-reset/confirm", "", map[string]string{
			"email": "dave@qq.com", "code": sent.DebugCode, "new_password": "another-pass",
		})
		assertStatus(t, w, http.StatusBadRequest)
	})
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/users/me", "/profile", "/conversations", "/memory", "/resources", "/recommendations", "/reports/monthly", "/guestbook", "/admin/users"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(t, s, "GET", path, "", nil)
			assertStatus(t, w, http.StatusUnauthorized)
		})
	}

	w := doRequest(t, s, "GET", "/users/me", "not-a-jwt", nil)
	assertStatus(t, w, http.StatusUnauthorized)
}
