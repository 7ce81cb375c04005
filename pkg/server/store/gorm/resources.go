package gorm

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.ResourcesStore = (*ResourcesStore)(nil)

// ResourcesStore implements store.ResourcesStore using GORM
type ResourcesStore struct {
	db *gorm.DB
}

// NewResourcesStore creates a new ResourcesStore
func NewResourcesStore(db *gorm.DB) *ResourcesStore {
	return &ResourcesStore{db: db}
}

func (s *ResourcesStore) ListResources(tag string) ([]model.Resource, error) {
	q := s.db.Preload("Tags").Where("resources.is_active = ?", true)
	if tag != "" {
		q = q.Where("resources.id IN (?)", s.taggedWith([]string{tag}))
	}
	var out []model.Resource
	err := q.Order("resources.created_at DESC").Find(&out).Error
	return out, err
}

func (s *ResourcesStore) GetResource(id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	if err := s.db.Preload("Tags").Where("id = ?", id).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrResourceNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (s *ResourcesStore) CreateResource(res *model.Resource, tagNames []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := getOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		res.Tags = tags
		return tx.Create(res).Error
	})
}

func (s *ResourcesStore) UpdateResource(res *model.Resource, tagNames []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(res).Error; err != nil {
			return err
		}
		if tagNames == nil {
			return nil
		}
		tags, err := getOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		if err := tx.Model(res).Association("Tags").Replace(tags); err != nil {
			return err
		}
		res.Tags = tags
		return nil
	})
}

func (s *ResourcesStore) DeleteResource(id uuid.UUID) error {
	tx := s.db.Where("id = ?", id).Delete(&model.Resource{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrResourceNotFound
	}
	return nil
}

func (s *ResourcesStore) RecordEvent(event *model.ResourceEvent) error {
	return s.db.Create(event).Error
}

func (s *ResourcesStore) TopSavedTags(userID uuid.UUID, since time.Time, limit int) ([]string, error) {
	var rows []tagCount
	err := s.db.Table("tags").
		Select("tags.name AS name, COUNT(*) AS n").
		Joins("JOIN resource_tags ON resource_tags.tag_id = tags.id").
		Joins("JOIN resources ON resources.id = resource_tags.resource_id").
		Joins("JOIN resource_events ON resource_events.resource_id = resources.id").
		Where("resource_events.user_id = ? AND resource_events.event_type = ? AND resource_events.created_at >= ?",
			userID, model.EventTypeSaved, since.UTC()).
		Where("resources.deleted_at IS NULL AND resources.is_active = ?", true).
		Group("tags.name").
		Order("n DESC, tags.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}

func (s *ResourcesStore) DismissedSince(userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&model.ResourceEvent{}).
		Where("user_id = ? AND event_type = ? AND created_at >= ?", userID, model.EventTypeDismissed, since.UTC()).
		Distinct().
		Pluck("resource_id", &ids).Error
	return ids, err
}

func (s *ResourcesStore) ByTags(tags []string, exclude []uuid.UUID, limit int) ([]model.Resource, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	q := s.db.Preload("Tags").
		Where("resources.is_active = ?", true).
		Where("resources.id IN (?)", s.taggedWith(tags))
	if len(exclude) > 0 {
		q = q.Where("resources.id NOT IN ?", exclude)
	}
	var out []model.Resource
	err := q.Order("resources.created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

type tagCount struct {
	Name string
	N    int64
}

// taggedWith is a subquery of resource ids linked to any of the tag names
func (s *ResourcesStore) taggedWith(names []string) *gorm.DB {
	return s.db.Table("resource_tags").
		Select("resource_tags.resource_id").
		Joins("JOIN tags ON tags.id = resource_tags.tag_id").
		Where("tags.name IN ?", names)
}

// getOrCreateTags resolves names to tags, creating missing ones. Blank and
// repeated names are skipped.
func getOrCreateTags(tx *gorm.DB, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag model.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = model.Tag{Name: name}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
