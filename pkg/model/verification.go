package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate go run github.com/dmarkham/enumer -type Purpose -trimprefix Purpose -transform snake -json -text -sql -output purpose.gen.go

// Purpose is what an emailed verification code unlocks
type Purpose int

const (
	PurposeRegister Purpose = iota
	PurposePasswordReset
)

// VerificationCode is a salted hash of a one-time code sent by email
type VerificationCode struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Purpose   Purpose    `gorm:"column:purpose;type:varchar(32);not null;index:idx_verification_codes_lookup"`
	Email     string     `gorm:"column:email;not null;index:idx_verification_codes_lookup"`
	CodeSalt  string     `gorm:"column:code_salt;not null"`
	CodeHash  string     `gorm:"column:code_hash;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

func (c *VerificationCode) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Expired reports whether the code is no longer valid at now
func (c *VerificationCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
