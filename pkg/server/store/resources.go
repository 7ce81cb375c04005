package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrResourceNotFound is returned when a resource doesn't exist or was deleted
var ErrResourceNotFound = errors.New("resource not found")

// ResourcesStore abstracts resource, tag and interaction event storage
type ResourcesStore interface {
	// ListResources returns live, active resources with tags loaded, newest
	// first, optionally restricted to those carrying tag.
	ListResources(tag string) ([]model.Resource, error)

	// GetResource returns a live resource with tags loaded.
	GetResource(id uuid.UUID) (*model.Resource, error)

	// CreateResource inserts the resource and links the named tags,
	// creating missing tags.
	CreateResource(res *model.Resource, tagNames []string) error

	// UpdateResource saves the resource. A non-nil tagNames replaces the
	// tag set.
	UpdateResource(res *model.Resource, tagNames []string) error

	// DeleteResource soft deletes a resource.
	DeleteResource(id uuid.UUID) error

	// RecordEvent stores an interaction event.
	RecordEvent(event *model.ResourceEvent) error

	// TopSavedTags returns tag names of live, active resources the user
	// saved since the given time, most frequent first.
	TopSavedTags(userID uuid.UUID, since time.Time, limit int) ([]string, error)

	// DismissedSince returns ids of resources the user dismissed since the
	// given time.
	DismissedSince(userID uuid.UUID, since time.Time) ([]uuid.UUID, error)

	// ByTags returns distinct live, active resources carrying any of the
	// tags, newest first, skipping the excluded ids.
	ByTags(tags []string, exclude []uuid.UUID, limit int) ([]model.Resource, error)
}
