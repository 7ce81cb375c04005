package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account that can log in to the assistant
type User struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email          string         `gorm:"column:email;not null;uniqueIndex:idx_users_email_live,where:deleted_at IS NULL" json:"email"`
	Username       string         `gorm:"column:username;not null" json:"username"`
	HashedPassword string         `gorm:"column:hashed_password;not null" json:"-"`
	IsAdmin        bool           `gorm:"column:is_admin;not null" json:"is_admin"`
	IsActive       bool           `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// IsGuest reports whether the account was created through guest login
func (u *User) IsGuest() bool {
	return strings.HasSuffix(u.Email, "@"+GuestEmailDomain)
}

// GuestEmailDomain is the email domain given to throwaway guest accounts
const GuestEmailDomain = "guest.local"

// UserProfile holds display settings and preferences, one row per user
type UserProfile struct {
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DisplayName *string        `gorm:"column:display_name" json:"display_name"`
	Preferences datatypes.JSON `gorm:"column:preferences" json:"preferences"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// PreferredTags returns the non-empty preferred_tags entries of the
// preferences object, or nil when the object is missing or malformed.
func (p *UserProfile) PreferredTags() []string {
	if p == nil || len(p.Preferences) == 0 {
		return nil
	}
	var prefs map[string]interface{}
	if err := json.Unmarshal(p.Preferences, &prefs); err != nil {
		return nil
	}
	raw, ok := prefs["preferred_tags"].([]interface{})
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
