package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/identity"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	"github.com/acgn-assistant/acgn-assistant/pkg/token"
)

// SuperAdminPolicy decides whether an admin's email makes them the super admin
type SuperAdminPolicy interface {
	IsSuperAdminEmail(email string) bool
}

// JWTAuthenticator is middleware that validates bearer access tokens and
// loads the account they were issued for
type JWTAuthenticator struct {
	Tokens *token.Issuer
	Users  store.UsersStore
	Policy SuperAdminPolicy
	Logger *zap.Logger
}

// NewJWTAuthenticator creates a new JWT authenticator middleware
func NewJWTAuthenticator(tokens *token.Issuer, users store.UsersStore, policy SuperAdminPolicy) *JWTAuthenticator {
	return &JWTAuthenticator{Tokens: tokens, Users: users, Policy: policy, Logger: zap.NewNop()}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (j *JWTAuthenticator) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

// Middleware returns an HTTP middleware that validates JWT tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Not authenticated")
			return
		}

		raw, ok := BearerToken(authHeader)
		if !ok {
			unauthorized(w, "Malformed authorization header")
			return
		}

		parsed, err := j.Tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				unauthorized(w, "Token expired")
				return
			}
			unauthorized(w, "Could not validate credentials")
			return
		}

		id, err := identity.FromToken(parsed)
		if err != nil {
			unauthorized(w, "Could not validate credentials")
			return
		}

		user, err := j.Users.GetUser(id.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				unauthorized(w, "User not found")
				return
			}
			j.logger().Error("failed to load user for token", zap.String("user_id", id.UserID.String()), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !user.IsActive {
			unauthorized(w, "account disabled")
			return
		}

		id.WithUser(user).
			WithSuperAdmin(j.Policy == nil || j.Policy.IsSuperAdminEmail(user.Email)).
			WithRemoteIP(identity.ClientIP(r)).
			WithUserAgent(r.UserAgent())

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// RequireAdmin rejects callers that are not admins. It must run after the
// JWT middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			unauthorized(w, "Not authenticated")
			return
		}
		if !id.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperAdmin rejects callers that are not the super admin
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			unauthorized(w, "Not authenticated")
			return
		}
		if !id.IsSuperAdmin {
			writeError(w, http.StatusForbidden, "Super admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
