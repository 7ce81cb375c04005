// Package password implements email and password login.
package password

import (
	"context"
	"errors"
	"strings"

	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// Name is the registry name of the password authenticator
const Name = "password"

// DomainPolicy decides which email domains non-admin users may log in with
type DomainPolicy interface {
	EmailDomainAllowed(email string) bool
}

// Authenticator checks an email and password against stored bcrypt hashes
type Authenticator struct {
	users  store.UsersStore
	policy DomainPolicy
}

// New creates a password authenticator
func New(users store.UsersStore, policy DomainPolicy) *Authenticator {
	return &Authenticator{users: users, policy: policy}
}

func (a *Authenticator) Name() string {
	return Name
}

// Authenticate looks the user up by email. Login is the email; Credentials
// is the plain password.
func (a *Authenticator) Authenticate(ctx context.Context, input authenticator.AuthenticatorInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Login))
	if email == "" {
		return nil, authenticator.ErrInvalidCredentials
	}

	user, err := a.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, authenticator.ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.Verify(user.HashedPassword, string(input.Credentials)) {
		return nil, authenticator.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, authenticator.ErrAccountDisabled
	}
	if !user.IsAdmin && a.policy != nil && !a.policy.EmailDomainAllowed(user.Email) {
		return nil, authenticator.ErrDomainNotAllowed
	}
	return user, nil
}

func (a *Authenticator) Status(ctx context.Context) error {
	return nil
}
