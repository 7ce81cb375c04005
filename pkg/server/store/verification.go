package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrCodeNotFound is returned when no unused code exists for an email
var ErrCodeNotFound = errors.New("verification code not found")

// VerificationCodesStore abstracts storage of emailed verification codes
type VerificationCodesStore interface {
	// LatestUnused returns the newest code for (purpose, email) that has not
	// been used. Expired codes are returned too; callers check expiry.
	LatestUnused(purpose model.Purpose, email string) (*model.VerificationCode, error)

	// CreateCode stores a new code.
	CreateCode(code *model.VerificationCode) error

	// MarkUsed stamps used_at on a code.
	MarkUsed(id uuid.UUID, at time.Time) error
}
