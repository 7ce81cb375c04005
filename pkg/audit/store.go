package audit

import (
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// Store persists audit rows to the admin_audit_logs table
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save inserts one audit row
func (s *Store) Save(entry *model.AdminAuditLog) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Create(entry).Error
}
