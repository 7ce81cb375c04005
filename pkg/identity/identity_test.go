package identity

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/token"
)

func TestFromToken(t *testing.T) {
	issuer := token.NewIssuer("secret", time.Hour)
	userID := uuid.New()

	t.Run("user id subject", func(t *testing.T) {
		raw, err := issuer.Issue(userID.String(), true)
		require.NoError(t, err)
		tok, err := issuer.Parse(raw)
		require.NoError(t, err)

		id, err := FromToken(tok)
		require.NoError(t, err)
		assert.Equal(t, userID, id.UserID)
		assert.True(t, id.IsGuest)
		assert.Equal(t, tok, id.Token)
		assert.True(t, id.ExpiresAt.After(id.IssuedAt))
	})

	t.Run("non uuid subject", func(t *testing.T) {
		raw, err := issuer.Issue("alice", false)
		require.NoError(t, err)
		tok, err := issuer.Parse(raw)
		require.NoError(t, err)

		_, err = FromToken(tok)
		assert.ErrorIs(t, err, token.ErrInvalid)
	})
}

func TestIdentity_WithMethods(t *testing.T) {
	user := &model.User{
		ID:       uuid.New(),
		Email:    "guest_abc@guest.local",
		Username: "guest_abc",
		IsAdmin:  false,
	}

	ip := net.ParseIP("192.168.1.100")
	id := (&Identity{}).
		WithUser(user).
		WithSuperAdmin(true).
		WithRemoteIP(ip).
		WithUserAgent("curl/8")

	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, "guest_abc", id.Username)
	assert.True(t, id.IsGuest)
	assert.False(t, id.IsSuperAdmin, "non-admins are never super admin")
	assert.Equal(t, "192.168.1.100", id.RemoteIPString())
	assert.Equal(t, "curl/8", id.UserAgent)
}

func TestIdentity_CanModify(t *testing.T) {
	owner := uuid.New()
	tests := []struct {
		name     string
		id       *Identity
		expected bool
	}{
		{name: "owner", id: &Identity{UserID: owner}, expected: true},
		{name: "admin", id: &Identity{UserID: uuid.New(), IsAdmin: true}, expected: true},
		{name: "stranger", id: &Identity{UserID: uuid.New()}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.id.CanModify(owner))
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", ClientIP(r).String())

	r.RemoteAddr = "10.0.0.8"
	assert.Equal(t, "10.0.0.8", ClientIP(r).String())
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{UserID: uuid.New(), Email: "alice@qq.com"}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, expected.UserID, id.UserID)
	assert.Equal(t, expected.Email, id.Email)
}
