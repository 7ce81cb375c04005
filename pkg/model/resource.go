package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate go run github.com/dmarkham/enumer -type EventType -trimprefix EventType -transform lower -json -text -sql -output event_type.gen.go

// EventType is the kind of feedback a user gave on a resource
type EventType int

const (
	EventTypeRecommended EventType = iota
	EventTypeViewed
	EventTypeSaved
	EventTypeDismissed
)

// Resource is a curated link or article that can be recommended
type Resource struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ResourceType string         `gorm:"column:resource_type;type:varchar(32);not null" json:"resource_type"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	URL          *string        `gorm:"column:url" json:"url"`
	Content      *string        `gorm:"column:content;type:text" json:"content"`
	IsActive     bool           `gorm:"column:is_active;not null" json:"is_active"`
	Tags         []Tag          `gorm:"many2many:resource_tags" json:"tags"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// TagNames returns the names of the loaded tags
func (r *Resource) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag labels resources for filtering and recommendation
type Tag struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// ResourceEvent records a user's interaction with a resource
type ResourceEvent struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ResourceID uuid.UUID `gorm:"column:resource_id;type:uuid;not null;index" json:"resource_id"`
	EventType  EventType `gorm:"column:event_type;type:varchar(16);not null" json:"event_type"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ResourceEvent) TableName() string {
	return "resource_events"
}

func (e *ResourceEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
