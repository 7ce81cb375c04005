package gorm

import (
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.HealthStore = (*HealthStore)(nil)

// HealthStore provides health check operations using GORM
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity runs a trivial query against the database
func (s *HealthStore) CheckConnectivity() error {
	var one int
	return s.db.Raw("SELECT 1").Scan(&one).Error
}
