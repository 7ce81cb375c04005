package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate go run github.com/dmarkham/enumer -type Role -trimprefix Role -transform lower -json -text -sql -output role.gen.go

// Role is the author of a chat message
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleSystem
)

// Conversation is a chat thread owned by a single user
type Conversation struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title     *string        `gorm:"column:title" json:"title"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Message is a single turn inside a conversation
type Message struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"column:conversation_id;type:uuid;not null;index" json:"conversation_id"`
	Role           Role           `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Content        string         `gorm:"column:content;type:text;not null" json:"content"`
	IsBlocked      bool           `gorm:"column:is_blocked;not null" json:"is_blocked"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
