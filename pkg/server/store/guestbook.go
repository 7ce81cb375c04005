package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrGuestbookMessageNotFound is returned when a guestbook message doesn't
// exist or was deleted
var ErrGuestbookMessageNotFound = errors.New("guestbook message not found")

// InboxReply is a reply joined with the message it answers
type InboxReply struct {
	Reply  model.GuestbookMessage
	Parent model.GuestbookMessage
}

// GuestbookStore abstracts guestbook storage
type GuestbookStore interface {
	CreateMessage(msg *model.GuestbookMessage) error

	// GetMessage returns a live message.
	GetMessage(id uuid.UUID) (*model.GuestbookMessage, error)

	// DeleteMessage soft deletes a message.
	DeleteMessage(id uuid.UUID) error

	// ListTopLevel pages live top-level messages, newest first.
	ListTopLevel(limit, offset int) ([]model.GuestbookMessage, error)

	// ListReplies returns live direct replies to any of the parents, oldest
	// first.
	ListReplies(parentIDs []uuid.UUID) ([]model.GuestbookMessage, error)

	// Inbox returns live replies by other users to the user's live
	// messages, oldest first, created strictly after the given time when
	// set.
	Inbox(userID uuid.UUID, after *time.Time, limit int) ([]InboxReply, error)
}
