package authenticator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

var (
	// ErrInvalidCredentials is returned for an unknown login or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when the account exists but is inactive
	ErrAccountDisabled = errors.New("account disabled")
	// ErrDomainNotAllowed is returned when a non-admin logs in with an email
	// outside the allowed domains
	ErrDomainNotAllowed = errors.New("email domain not allowed")
)

// Authenticator defines the interface for all authenticators
type Authenticator interface {
	// Name returns the authenticator name (e.g., "password", "guest")
	Name() string

	// Authenticate validates the input and returns the logged-in user
	Authenticate(ctx context.Context, input AuthenticatorInput) (*model.User, error)

	// Status checks if the authenticator is healthy
	Status(ctx context.Context) error
}

// AuthenticatorInput contains the input for authentication
type AuthenticatorInput struct {
	Login       string
	Credentials []byte
	ClientIP    string
}

// Registry holds all registered authenticators
type Registry struct {
	mu             sync.RWMutex
	authenticators map[string]Authenticator
	enabled        map[string]bool
}

// NewRegistry creates a new authenticator registry
func NewRegistry() *Registry {
	return &Registry{
		authenticators: make(map[string]Authenticator),
		enabled:        make(map[string]bool),
	}
}

// Register adds an authenticator to the registry and enables it
func (r *Registry) Register(auth Authenticator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authenticators[auth.Name()] = auth
	r.enabled[auth.Name()] = true
}

// Enable enables an authenticator by name
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.authenticators[name]; !ok {
		return fmt.Errorf("authenticator %q not found", name)
	}
	r.enabled[name] = true
	return nil
}

// Disable disables an authenticator by name
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enabled, name)
}

// Get returns an enabled authenticator by name
func (r *Registry) Get(name string) (Authenticator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabled[name] {
		return nil, false
	}
	auth, ok := r.authenticators[name]
	return auth, ok
}

// IsEnabled checks if an authenticator is enabled
func (r *Registry) IsEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[name]
}

// Installed returns all installed authenticator names
func (r *Registry) Installed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.authenticators))
	for name := range r.authenticators {
		names = append(names, name)
	}
	return names
}

// Authenticate runs the named authenticator
func (r *Registry) Authenticate(ctx context.Context, name string, input AuthenticatorInput) (*model.User, error) {
	auth, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("authenticator %q is not enabled", name)
	}
	return auth.Authenticate(ctx, input)
}
