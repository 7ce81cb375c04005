package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed indicates the token structure is invalid.
var ErrMalformed = errors.New("malformed token")

// ErrInvalid indicates a bad signature or missing required claims.
var ErrInvalid = errors.New("invalid token")

// ErrExpired indicates the exp claim is in the past.
var ErrExpired = errors.New("token expired")

// Claims are the access token claims. Only sub, iat and exp are registered
// claims; is_guest is set on tokens minted by guest login.
type Claims struct {
	IsGuest bool `json:"is_guest,omitempty"`
	jwt.RegisteredClaims
}

// Parsed represents a verified access token.
type Parsed struct {
	claims *Claims
}

// Sub returns the subject claim (user id).
func (p Parsed) Sub() string {
	return p.claims.Subject
}

// IAT returns the issued-at time.
func (p Parsed) IAT() time.Time {
	if p.claims.IssuedAt == nil {
		return time.Time{}
	}
	return p.claims.IssuedAt.Time
}

// Exp returns the expiration time.
func (p Parsed) Exp() time.Time {
	if p.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return p.claims.ExpiresAt.Time
}

// IsGuest reports whether the token was issued by guest login.
func (p Parsed) IsGuest() bool {
	return p.claims.IsGuest
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer for tokens that live for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the issuer's time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue returns a signed token for subject.
func (i *Issuer) Issue(subject string, isGuest bool) (string, error) {
	now := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		IsGuest: isGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims. Only HS256 is accepted.
func (i *Issuer) Parse(raw string) (*Parsed, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrInvalid
		}
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}
	return &Parsed{claims: claims}, nil
}
