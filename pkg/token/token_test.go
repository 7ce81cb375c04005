package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", 2*time.Hour).WithClock(fixedClock(now))

	raw, err := issuer.Issue("user-1", true)
	require.NoError(t, err)

	parsed, err := issuer.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "user-1", parsed.Sub())
	assert.True(t, parsed.IsGuest())
	assert.Equal(t, now, parsed.IAT().UTC())
	assert.Equal(t, now.Add(2*time.Hour), parsed.Exp().UTC())
}

func TestParse_Errors(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour).WithClock(fixedClock(now))

	valid, err := issuer.Issue("user-1", false)
	require.NoError(t, err)

	otherSecret, err := NewIssuer("other", time.Hour).WithClock(fixedClock(now)).Issue("user-1", false)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		issuer  *Issuer
		raw     string
		wantErr error
	}{
		{name: "garbage", issuer: issuer, raw: "not-a-token", wantErr: ErrMalformed},
		{name: "wrong secret", issuer: issuer, raw: otherSecret, wantErr: ErrInvalid},
		{name: "missing subject", issuer: issuer, raw: noSubject, wantErr: ErrInvalid},
		{name: "alg none", issuer: issuer, raw: noneAlg, wantErr: ErrInvalid},
		{
			name:    "expired",
			issuer:  NewIssuer("secret", time.Hour).WithClock(fixedClock(now.Add(2 * time.Hour))),
			raw:     valid,
			wantErr: ErrExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Parse(tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
