package identity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated user of a request.
// It combines token claims with the loaded account and request context.
type Identity struct {
	// Token claims
	UserID    uuid.UUID
	IsGuest   bool
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Account state at request time
	Email        string
	Username     string
	IsAdmin      bool
	IsSuperAdmin bool

	// Request context
	RemoteIP  net.IP
	UserAgent string

	// The underlying parsed token
	Token *token.Parsed
}

// FromToken creates an Identity from a parsed token. The subject must be a
// user id.
func FromToken(tok *token.Parsed) (*Identity, error) {
	userID, err := uuid.Parse(tok.Sub())
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", token.ErrInvalid)
	}
	return &Identity{
		UserID:    userID,
		IsGuest:   tok.IsGuest(),
		IssuedAt:  tok.IAT(),
		ExpiresAt: tok.Exp(),
		Token:     tok,
	}, nil
}

// WithUser copies account fields from the loaded user.
func (i *Identity) WithUser(u *model.User) *Identity {
	i.UserID = u.ID
	i.Email = u.Email
	i.Username = u.Username
	i.IsAdmin = u.IsAdmin
	if u.IsGuest() {
		i.IsGuest = true
	}
	return i
}

// WithSuperAdmin marks the identity as the super admin. Non-admins never are.
func (i *Identity) WithSuperAdmin(super bool) *Identity {
	i.IsSuperAdmin = i.IsAdmin && super
	return i
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithUserAgent sets the client user agent.
func (i *Identity) WithUserAgent(ua string) *Identity {
	i.UserAgent = ua
	return i
}

// CanModify reports whether the identity may change or delete something
// owned by ownerID: admins and the owner can.
func (i *Identity) CanModify(ownerID uuid.UUID) bool {
	return i.IsAdmin || i.UserID == ownerID
}

// RemoteIPString returns the remote IP or "" when unknown.
func (i *Identity) RemoteIPString() string {
	if i.RemoteIP == nil {
		return ""
	}
	return i.RemoteIP.String()
}

// ClientIP extracts the client address from the request's RemoteAddr.
// Proxy headers are resolved before this by the server's ProxyHeaders handler.
func ClientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
