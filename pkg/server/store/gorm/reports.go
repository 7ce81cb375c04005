package gorm

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.ReportsStore = (*ReportsStore)(nil)

// ReportsStore implements store.ReportsStore using GORM
type ReportsStore struct {
	db *gorm.DB
}

// NewReportsStore creates a new ReportsStore
func NewReportsStore(db *gorm.DB) *ReportsStore {
	return &ReportsStore{db: db}
}

func (s *ReportsStore) CreateReport(report *model.Report) error {
	return s.db.Create(report).Error
}

func (s *ReportsStore) ListReports(userID uuid.UUID) ([]model.Report, error) {
	var reports []model.Report
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

func (s *ReportsStore) GetReport(userID, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ReportsStore) DeleteReport(userID, id uuid.UUID) error {
	tx := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Report{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrReportNotFound
	}
	return nil
}
