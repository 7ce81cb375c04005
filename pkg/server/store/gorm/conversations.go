package gorm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.ConversationsStore = (*ConversationsStore)(nil)

// ConversationsStore implements store.ConversationsStore using GORM
type ConversationsStore struct {
	db *gorm.DB
}

// NewConversationsStore creates a new ConversationsStore
func NewConversationsStore(db *gorm.DB) *ConversationsStore {
	return &ConversationsStore{db: db}
}

func (s *ConversationsStore) CreateConversation(conv *model.Conversation) error {
	return s.db.Create(conv).Error
}

func (s *ConversationsStore) GetConversation(id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.db.Unscoped().Where("id = ?", id).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (s *ConversationsStore) ListConversations(userID uuid.UUID) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&convs).Error
	return convs, err
}

func (s *ConversationsStore) SetTitle(id uuid.UUID, title *string) error {
	tx := s.db.Model(&model.Conversation{}).Where("id = ?", id).Update("title", title)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrConversationNotFound
	}
	return nil
}

func (s *ConversationsStore) DeleteConversation(id uuid.UUID) error {
	tx := s.db.Where("id = ?", id).Delete(&model.Conversation{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrConversationNotFound
	}
	return nil
}

func (s *ConversationsStore) AddMessage(msg *model.Message) error {
	return s.db.Create(msg).Error
}

func (s *ConversationsStore) GetMessage(id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	if err := s.db.Where("id = ?", id).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (s *ConversationsStore) ListMessages(conversationID uuid.UUID, includeDeleted bool) ([]model.Message, error) {
	q := s.db
	if includeDeleted {
		q = q.Unscoped()
	}
	var msgs []model.Message
	err := q.Where("conversation_id = ?", conversationID).Order("created_at ASC").Find(&msgs).Error
	return msgs, err
}

func (s *ConversationsStore) DeleteMessage(id uuid.UUID) error {
	tx := s.db.Where("id = ?", id).Delete(&model.Message{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrMessageNotFound
	}
	return nil
}

func (s *ConversationsStore) ListAll(filter store.ConversationFilter) ([]store.ConversationWithOwner, error) {
	q := s.withOwner(filter.IncludeDeleted)
	if filter.UserID != nil {
		q = q.Where("c.user_id = ?", *filter.UserID)
	}
	var rows []store.ConversationWithOwner
	err := q.Order("c.created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Scan(&rows).Error
	return rows, err
}

func (s *ConversationsStore) GetWithOwner(id uuid.UUID, includeDeleted bool) (*store.ConversationWithOwner, error) {
	var rows []store.ConversationWithOwner
	if err := s.withOwner(includeDeleted).Where("c.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrConversationNotFound
	}
	return &rows[0], nil
}

func (s *ConversationsStore) withOwner(includeDeleted bool) *gorm.DB {
	q := s.db.Table("conversations AS c").
		Select("c.*, u.email AS user_email, u.username AS user_username").
		Joins("LEFT JOIN users AS u ON u.id = c.user_id")
	if !includeDeleted {
		q = q.Where("c.deleted_at IS NULL")
	}
	return q
}

func (s *ConversationsStore) Activity(userID uuid.UUID, start, end time.Time) (*store.Activity, error) {
	var convIDs []uuid.UUID
	err := s.db.Model(&model.Conversation{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start.UTC(), end.UTC()).
		Pluck("id", &convIDs).Error
	if err != nil {
		return nil, err
	}

	activity := &store.Activity{Conversations: len(convIDs)}
	if len(convIDs) == 0 {
		return activity, nil
	}
	err = s.db.Model(&model.Message{}).
		Where("conversation_id IN ? AND content <> ''", convIDs).
		Order("created_at ASC").
		Pluck("content", &activity.Contents).Error
	if err != nil {
		return nil, err
	}
	return activity, nil
}
