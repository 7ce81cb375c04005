package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuestbookContentMaxLen is the maximum guestbook message length in runes
const GuestbookContentMaxLen = 800

// GuestbookMessage is a guestbook post. Replies point at their parent; top
// level posts have no parent.
type GuestbookMessage struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ParentID  *uuid.UUID     `gorm:"column:parent_id;type:uuid;index"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	Username  string         `gorm:"column:username;not null"`
	Email     string         `gorm:"column:email;not null"`
	Content   string         `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (GuestbookMessage) TableName() string {
	return "guestbook_messages"
}

func (m *GuestbookMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
