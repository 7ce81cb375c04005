// Package guest implements throwaway guest accounts.
//
// Every call creates a fresh user guest_<id>@guest.local with a random
// password nobody knows, so the account can only be used through the token
// returned at creation.
package guest

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// Name is the registry name of the guest authenticator
const Name = "guest"

// Authenticator creates guest users
type Authenticator struct {
	users store.UsersStore
}

// New creates a guest authenticator
func New(users store.UsersStore) *Authenticator {
	return &Authenticator{users: users}
}

func (a *Authenticator) Name() string {
	return Name
}

// Authenticate ignores its input and returns a newly created guest user
func (a *Authenticator) Authenticate(ctx context.Context, _ authenticator.AuthenticatorInput) (*model.User, error) {
	rid := hexID()[:10]
	username := "guest_" + rid

	hashed, err := hash.Password(hexID())
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:          username + "@" + model.GuestEmailDomain,
		Username:       username,
		HashedPassword: hashed,
		IsActive:       true,
	}
	profile := &model.UserProfile{DisplayName: &username}
	if err := a.users.CreateUser(user, profile); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Authenticator) Status(ctx context.Context) error {
	return nil
}

func hexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
