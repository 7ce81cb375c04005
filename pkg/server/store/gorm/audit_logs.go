package gorm

import (
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.AuditLogsStore = (*AuditLogsStore)(nil)

// AuditLogsStore implements store.AuditLogsStore using GORM
type AuditLogsStore struct {
	db *gorm.DB
}

// NewAuditLogsStore creates a new AuditLogsStore
func NewAuditLogsStore(db *gorm.DB) *AuditLogsStore {
	return &AuditLogsStore{db: db}
}

func (s *AuditLogsStore) ListAuditLogs(filter store.AuditLogFilter) ([]model.AdminAuditLog, error) {
	q := s.db.Model(&model.AdminAuditLog{})
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *filter.ActorUserID)
	}
	if filter.TargetUserID != nil {
		q = q.Where("target_user_id = ?", *filter.TargetUserID)
	}
	var logs []model.AdminAuditLog
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&logs).Error
	return logs, err
}
