package gorm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.GuestbookStore = (*GuestbookStore)(nil)

// GuestbookStore implements store.GuestbookStore using GORM
type GuestbookStore struct {
	db *gorm.DB
}

// NewGuestbookStore creates a new GuestbookStore
func NewGuestbookStore(db *gorm.DB) *GuestbookStore {
	return &GuestbookStore{db: db}
}

func (s *GuestbookStore) CreateMessage(msg *model.GuestbookMessage) error {
	return s.db.Create(msg).Error
}

func (s *GuestbookStore) GetMessage(id uuid.UUID) (*model.GuestbookMessage, error) {
	var msg model.GuestbookMessage
	if err := s.db.Where("id = ?", id).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrGuestbookMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (s *GuestbookStore) DeleteMessage(id uuid.UUID) error {
	tx := s.db.Where("id = ?", id).Delete(&model.GuestbookMessage{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrGuestbookMessageNotFound
	}
	return nil
}

func (s *GuestbookStore) ListTopLevel(limit, offset int) ([]model.GuestbookMessage, error) {
	var msgs []model.GuestbookMessage
	err := s.db.Where("parent_id IS NULL").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (s *GuestbookStore) ListReplies(parentIDs []uuid.UUID) ([]model.GuestbookMessage, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var msgs []model.GuestbookMessage
	err := s.db.Where("parent_id IN ?", parentIDs).Order("created_at ASC").Find(&msgs).Error
	return msgs, err
}

func (s *GuestbookStore) Inbox(userID uuid.UUID, after *time.Time, limit int) ([]store.InboxReply, error) {
	q := s.db.Table("guestbook_messages AS r").
		Select("r.*").
		Joins("JOIN guestbook_messages AS p ON p.id = r.parent_id").
		Where("r.deleted_at IS NULL AND p.deleted_at IS NULL").
		Where("p.user_id = ? AND r.user_id <> ?", userID, userID)
	if after != nil {
		q = q.Where("r.created_at > ?", after.UTC())
	}

	var replies []model.GuestbookMessage
	if err := q.Order("r.created_at ASC").Limit(limit).Scan(&replies).Error; err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nil
	}

	parentIDs := make([]uuid.UUID, 0, len(replies))
	for _, r := range replies {
		parentIDs = append(parentIDs, *r.ParentID)
	}
	var parents []model.GuestbookMessage
	if err := s.db.Where("id IN ?", parentIDs).Find(&parents).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.GuestbookMessage, len(parents))
	for _, p := range parents {
		byID[p.ID] = p
	}

	out := make([]store.InboxReply, 0, len(replies))
	for _, r := range replies {
		parent, ok := byID[*r.ParentID]
		if !ok {
			continue
		}
		out = append(out, store.InboxReply{Reply: r, Parent: parent})
	}
	return out, nil
}
