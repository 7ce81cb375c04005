package store

import (
	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ProfilesStore abstracts user profile storage
type ProfilesStore interface {
	// GetProfile returns the user's profile, or nil when none exists yet.
	GetProfile(userID uuid.UUID) (*model.UserProfile, error)

	// GetOrCreateProfile returns the user's profile, creating an empty one
	// when it is missing.
	GetOrCreateProfile(userID uuid.UUID) (*model.UserProfile, error)

	// SaveProfile updates the profile and refreshes updated_at.
	SaveProfile(profile *model.UserProfile) error
}
