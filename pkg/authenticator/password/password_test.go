package password

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type MockUsersStore struct {
	mock.Mock
	store.UsersStore
}

func (m *MockUsersStore) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type domains []string

func (d domains) EmailDomainAllowed(email string) bool {
	for _, s := range d {
		if len(email) > len(s) && email[len(email)-len(s)-1:] == "@"+s {
			return true
		}
	}
	return false
}

func TestAuthenticate(t *testing.T) {
	hashed, err := hash.Password("secret1")
	require.NoError(t, err)

	user := func(email string, active, admin bool) *model.User {
		return &model.User{ID: uuid.New(), Email: email, HashedPassword: hashed, IsActive: active, IsAdmin: admin}
	}

	tests := []struct {
		name     string
		login    string
		password string
		found    *model.User
		findErr  error
		wantErr  error
	}{
		{name: "ok", login: " Alice@QQ.com ", password: "secret1", found: user("alice@qq.com", true, false)},
		{name: "unknown", login: "x@qq.com", password: "secret1", findErr: store.ErrUserNotFound, wantErr: authenticator.ErrInvalidCredentials},
		{name: "wrong password", login: "alice@qq.com", password: "nope", found: user("alice@qq.com", true, false), wantErr: authenticator.ErrInvalidCredentials},
		{name: "disabled", login: "alice@qq.com", password: "secret1", found: user("alice@qq.com", false, false), wantErr: authenticator.ErrAccountDisabled},
		{name: "foreign domain", login: "bob@gmail.com", password: "secret1", found: user("bob@gmail.com", true, false), wantErr: authenticator.ErrDomainNotAllowed},
		{name: "admin any domain", login: "root@corp.example", password: "secret1", found: user("root@corp.example", true, true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUsersStore)
			var found interface{}
			if tt.found != nil {
				found = tt.found
			}
			users.On("GetUserByEmail", mock.Anything).Return(found, tt.findErr)

			auth := New(users, domains{"qq.com"})
			got, err := auth.Authenticate(context.Background(), authenticator.AuthenticatorInput{
				Login:       tt.login,
				Credentials: []byte(tt.password),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.found.ID, got.ID)
		})
	}
}

func TestAuthenticate_NormalisesLogin(t *testing.T) {
	users := new(MockUsersStore)
	users.On("GetUserByEmail", "alice@qq.com").Return(nil, store.ErrUserNotFound)

	_, err := New(users, nil).Authenticate(context.Background(), authenticator.AuthenticatorInput{Login: "  ALICE@qq.com"})
	assert.ErrorIs(t, err, authenticator.ErrInvalidCredentials)
	users.AssertExpectations(t)
}

func TestAuthenticate_StoreError(t *testing.T) {
	users := new(MockUsersStore)
	users.On("GetUserByEmail", "a@qq.com").Return(nil, errors.New("db down"))

	_, err := New(users, nil).Authenticate(context.Background(), authenticator.AuthenticatorInput{Login: "a@qq.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, authenticator.ErrInvalidCredentials)
}
