package gorm

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.MemoryStore = (*MemoryStore)(nil)

// MemoryStore implements store.MemoryStore using GORM
type MemoryStore struct {
	db *gorm.DB
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore(db *gorm.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) ListMemory(userID uuid.UUID, kind string, limit int) ([]model.MemoryItem, error) {
	q := s.db.Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var items []model.MemoryItem
	err := q.Order("updated_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (s *MemoryStore) GetMemory(userID, id uuid.UUID) (*model.MemoryItem, error) {
	var item model.MemoryItem
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrMemoryNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *MemoryStore) CreateMemory(item *model.MemoryItem) error {
	return s.db.Create(item).Error
}

func (s *MemoryStore) SaveMemory(item *model.MemoryItem) error {
	return s.db.Save(item).Error
}

func (s *MemoryStore) DeleteMemory(userID, id uuid.UUID) error {
	tx := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.MemoryItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrMemoryNotFound
	}
	return nil
}

// UpsertMemory keeps at most one live item per (user, kind, title)
func (s *MemoryStore) UpsertMemory(item *model.MemoryItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.MemoryItem
		err := tx.Where("user_id = ? AND kind = ? AND title = ?", item.UserID, item.Kind, item.Title).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(item).Error
		case err != nil:
			return err
		}

		existing.Content = item.Content
		existing.Confidence = item.Confidence
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*item = existing
		return nil
	})
}
