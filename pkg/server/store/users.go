package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrUserNotFound is returned when a user doesn't exist or was deleted
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when a live user already owns the email
var ErrEmailTaken = errors.New("email already registered")

// UsersStore abstracts account storage
type UsersStore interface {
	// GetUser returns a live user by id.
	GetUser(id uuid.UUID) (*model.User, error)

	// GetUserByEmail returns the live user with the given (normalised) email.
	GetUserByEmail(email string) (*model.User, error)

	// EmailExists reports whether a live user owns the email.
	EmailExists(email string) (bool, error)

	// CreateUser inserts the user and, when profile is not nil, its profile in
	// one transaction. Returns ErrEmailTaken if the email is in use.
	CreateUser(user *model.User, profile *model.UserProfile) error

	// UpdateUser saves every column of the user.
	UpdateUser(user *model.User) error

	// ListUsers returns live users, newest first.
	ListUsers() ([]model.User, error)

	// CountActiveAdmins counts live, active admins.
	CountActiveAdmins() (int64, error)

	// DeleteUser soft deletes a user.
	DeleteUser(id uuid.UUID) error
}
