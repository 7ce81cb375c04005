package gorm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.VerificationCodesStore = (*VerificationCodesStore)(nil)

// VerificationCodesStore implements store.VerificationCodesStore using GORM
type VerificationCodesStore struct {
	db *gorm.DB
}

// NewVerificationCodesStore creates a new VerificationCodesStore
func NewVerificationCodesStore(db *gorm.DB) *VerificationCodesStore {
	return &VerificationCodesStore{db: db}
}

func (s *VerificationCodesStore) LatestUnused(purpose model.Purpose, email string) (*model.VerificationCode, error) {
	var code model.VerificationCode
	err := s.db.
		Where("purpose = ? AND email = ? AND used_at IS NULL", purpose, email).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (s *VerificationCodesStore) CreateCode(code *model.VerificationCode) error {
	return s.db.Create(code).Error
}

func (s *VerificationCodesStore) MarkUsed(id uuid.UUID, at time.Time) error {
	return s.db.Model(&model.VerificationCode{}).
		Where("id = ?", id).
		Update("used_at", at).Error
}
