package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records an action taken by an administrator
type AdminAuditLog struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	ActorUserID  *uuid.UUID     `gorm:"column:actor_user_id;type:uuid;index" json:"actor_user_id"`
	ActorEmail   *string        `gorm:"column:actor_email" json:"actor_email"`
	Action       string         `gorm:"column:action;type:varchar(64);not null;index" json:"action"`
	TargetUserID *uuid.UUID     `gorm:"column:target_user_id;type:uuid;index" json:"target_user_id"`
	TargetEmail  *string        `gorm:"column:target_email" json:"target_email"`
	IP           *string        `gorm:"column:ip" json:"ip"`
	UserAgent    *string        `gorm:"column:user_agent" json:"user_agent"`
	Details      datatypes.JSON `gorm:"column:details" json:"details"`
}

func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}

func (l *AdminAuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
