package gorm

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

var _ store.ProfilesStore = (*ProfilesStore)(nil)

// ProfilesStore implements store.ProfilesStore using GORM
type ProfilesStore struct {
	db *gorm.DB
}

// NewProfilesStore creates a new ProfilesStore
func NewProfilesStore(db *gorm.DB) *ProfilesStore {
	return &ProfilesStore{db: db}
}

func (s *ProfilesStore) GetProfile(userID uuid.UUID) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (s *ProfilesStore) GetOrCreateProfile(userID uuid.UUID) (*model.UserProfile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil || profile != nil {
		return profile, err
	}
	profile = &model.UserProfile{
		UserID:      userID,
		Preferences: datatypes.JSON("{}"),
	}
	if err := s.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfilesStore) SaveProfile(profile *model.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	return s.db.Save(profile).Error
}
