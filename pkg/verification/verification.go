// Package verification issues and checks the numeric codes mailed to users
// during registration and password reset.
//
// Only a salted SHA-256 hash of each code is stored. The newest unused code
// for an (email, purpose) pair is the only one that can be redeemed.
package verification

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var (
	// ErrNoCode is returned when no unused code exists for the email
	ErrNoCode = errors.New("no verification code requested")
	// ErrCodeExpired is returned when the newest code has expired
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch is returned when the submitted code is wrong
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// CooldownError is returned when a new code is requested too soon after the
// previous one
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("verification code requested too often, retry in %ds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds
func (e *CooldownError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.Remaining.Seconds()))
	if s < 0 {
		return 0
	}
	return s
}

// Service issues and redeems codes backed by a VerificationCodesStore
type Service struct {
	codes store.VerificationCodesStore
	now   func() time.Time
}

// New creates a Service
func New(codes store.VerificationCodesStore) *Service {
	return &Service{codes: codes, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue creates a new code for the email. It fails with *CooldownError when
// the newest unused code is still valid and younger than cooldown.
func (s *Service) Issue(purpose model.Purpose, email string, ttl, cooldown time.Duration) (string, error) {
	now := s.now()

	latest, err := s.codes.LatestUnused(purpose, email)
	switch {
	case errors.Is(err, store.ErrCodeNotFound):
	case err != nil:
		return "", err
	case !latest.Expired(now):
		if age := now.Sub(latest.CreatedAt); age < cooldown {
			return "", &CooldownError{Remaining: cooldown - age}
		}
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	salt := strings.ReplaceAll(uuid.NewString(), "-", "")
	record := &model.VerificationCode{
		Purpose:   purpose,
		Email:     email,
		CodeSalt:  salt,
		CodeHash:  HashCode(salt, code),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.codes.CreateCode(record); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// Check validates code against the newest unused code for the email without
// consuming it.
func (s *Service) Check(purpose model.Purpose, email, code string) (*model.VerificationCode, error) {
	record, err := s.codes.LatestUnused(purpose, email)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return nil, ErrNoCode
		}
		return nil, err
	}
	if record.Expired(s.now()) {
		return nil, ErrCodeExpired
	}
	got := HashCode(record.CodeSalt, strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(got), []byte(record.CodeHash)) != 1 {
		return nil, ErrCodeMismatch
	}
	return record, nil
}

// Consume marks a checked code as used
func (s *Service) Consume(record *model.VerificationCode) error {
	return s.codes.MarkUsed(record.ID, s.now())
}

// HashCode returns the hex SHA-256 of "salt:code"
func HashCode(salt, code string) string {
	sum := sha256.Sum256([]byte(salt + ":" + code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
