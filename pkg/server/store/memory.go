package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrMemoryNotFound is returned when a memory item doesn't exist, was
// deleted, or belongs to another user
var ErrMemoryNotFound = errors.New("memory item not found")

// MemoryStore abstracts long-term memory storage
type MemoryStore interface {
	// ListMemory returns the user's live items by updated_at desc. An empty
	// kind matches every kind.
	ListMemory(userID uuid.UUID, kind string, limit int) ([]model.MemoryItem, error)

	// GetMemory returns a live item owned by the user.
	GetMemory(userID, id uuid.UUID) (*model.MemoryItem, error)

	// CreateMemory inserts an item.
	CreateMemory(item *model.MemoryItem) error

	// SaveMemory updates an item.
	SaveMemory(item *model.MemoryItem) error

	// DeleteMemory soft deletes an item owned by the user.
	DeleteMemory(userID, id uuid.UUID) error

	// UpsertMemory updates the live item with the same (user, kind, title)
	// or inserts a new one.
	UpsertMemory(item *model.MemoryItem) error
}
