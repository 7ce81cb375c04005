package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memory kinds written by the assistant itself
const (
	MemoryKindFact = "fact"
	MemoryKindPref = "pref"
)

// MemoryItem is a long-term fact or preference remembered about a user
type MemoryItem struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Kind       string         `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Title      string         `gorm:"column:title;not null" json:"title"`
	Content    string         `gorm:"column:content;type:text;not null" json:"content"`
	Confidence *float64       `gorm:"column:confidence" json:"confidence"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (MemoryItem) TableName() string {
	return "memory_items"
}

func (m *MemoryItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Kind == "" {
		m.Kind = MemoryKindFact
	}
	return nil
}
