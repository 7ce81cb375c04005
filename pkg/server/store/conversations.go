package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrConversationNotFound is returned when a conversation doesn't exist
var ErrConversationNotFound = errors.New("conversation not found")

// ErrMessageNotFound is returned when a message doesn't exist or was deleted
var ErrMessageNotFound = errors.New("message not found")

// ConversationFilter narrows the admin conversation listing
type ConversationFilter struct {
	UserID         *uuid.UUID
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ConversationWithOwner is a conversation joined with its owner's account
type ConversationWithOwner struct {
	model.Conversation
	UserEmail    *string `json:"user_email"`
	UserUsername *string `json:"user_username"`
}

// Activity is a user's chat activity over a period
type Activity struct {
	// Conversations counts live conversations created in the period.
	Conversations int
	// Contents holds the non-empty content of their live messages.
	Contents []string
}

// ConversationsStore abstracts conversation and message storage
type ConversationsStore interface {
	// CreateConversation inserts a conversation.
	CreateConversation(conv *model.Conversation) error

	// GetConversation returns a conversation, soft-deleted ones included, so
	// callers can tell "missing" from "someone else's".
	GetConversation(id uuid.UUID) (*model.Conversation, error)

	// ListConversations returns the user's live conversations, newest first.
	ListConversations(userID uuid.UUID) ([]model.Conversation, error)

	// SetTitle updates the title; nil clears it.
	SetTitle(id uuid.UUID, title *string) error

	// DeleteConversation soft deletes a conversation.
	DeleteConversation(id uuid.UUID) error

	// AddMessage appends a message.
	AddMessage(msg *model.Message) error

	// GetMessage returns a live message.
	GetMessage(id uuid.UUID) (*model.Message, error)

	// ListMessages returns the conversation's messages, oldest first.
	ListMessages(conversationID uuid.UUID, includeDeleted bool) ([]model.Message, error)

	// DeleteMessage soft deletes a message.
	DeleteMessage(id uuid.UUID) error

	// ListAll returns conversations of every user for admins, newest first.
	ListAll(filter ConversationFilter) ([]ConversationWithOwner, error)

	// GetWithOwner returns one conversation joined with its owner.
	GetWithOwner(id uuid.UUID, includeDeleted bool) (*ConversationWithOwner, error)

	// Activity collects the user's live conversations created in
	// [start, end) and the contents of their live messages.
	Activity(userID uuid.UUID, start, end time.Time) (*Activity, error)
}
