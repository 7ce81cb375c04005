package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/db/dbtest"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
)

const (
	testAdminEmail = "root@qq.com"
	testPassword   = "secret123"
)

// newTestServer builds a fully wired server over an in-memory database with
// every endpoint registered. No LLM or web search is configured.
func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Env = "test"
	cfg.DatabaseURL = "sqlite://test.db"
	cfg.JWTSecret = "endpoint-test-secret"
	cfg.AdminEmail = testAdminEmail
	cfg.RateLimitBurst = 1000
	cfg.RateLimitRPS = 1000

	s, err := server.NewServer(cfg, dbtest.New(t), zap.NewNop(), metrics.New(), "127.0.0.1", "0")
	require.NoError(t, err)
	RegisterAll(s)

	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// createTestUser inserts an active user with testPassword
func createTestUser(t *testing.T, s *server.Server, email string, admin bool) *model.User {
	t.Helper()

	hashed, err := hash.Password(testPassword)
	require.NoError(t, err)
	user := &model.User{
		Email:          email,
		Username:       email[:strings.Index(email, "@")],
		HashedPassword: hashed,
		IsAdmin:        admin,
		IsActive:       true,
	}
	require.NoError(t, s.UsersStore.CreateUser(user, &model.UserProfile{Preferences: datatypes.JSON("{}")}))
	return user
}

func tokenFor(t *testing.T, s *server.Server, user *model.User) string {
	t.Helper()
	raw, err := s.Tokens.Issue(user.ID.String(), user.IsGuest())
	require.NoError(t, err)
	return raw
}

// doRequest sends body (marshalled unless it is a string) through the full
// handler chain
func doRequest(t *testing.T, s *server.Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

// errorMessage extracts msg from {"error": {"error": msg}}
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Error string `json:"error"`
		} `json:"error"`
	}
	decodeBody(t, w, &body)
	return body.Error.Error
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equalf(t, want, w.Code, "body: %s", w.Body.String())
}
