package gorm

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

func (s *UsersStore) GetUser(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UsersStore) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UsersStore) EmailExists(email string) (bool, error) {
	return emailExists(s.db, email)
}

// CreateUser inserts the user and its profile in one transaction
func (s *UsersStore) CreateUser(user *model.User, profile *model.UserProfile) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		exists, err := emailExists(tx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrEmailTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return store.ErrEmailTaken
			}
			return err
		}
		if profile == nil {
			return nil
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
}

func (s *UsersStore) UpdateUser(user *model.User) error {
	return s.db.Save(user).Error
}

func (s *UsersStore) ListUsers() ([]model.User, error) {
	var users []model.User
	err := s.db.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *UsersStore) CountActiveAdmins() (int64, error) {
	var n int64
	err := s.db.Model(&model.User{}).
		Where("is_admin = ? AND is_active = ?", true, true).
		Count(&n).Error
	return n, err
}

func (s *UsersStore) DeleteUser(id uuid.UUID) error {
	tx := s.db.Where("id = ?", id).Delete(&model.User{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func emailExists(db *gorm.DB, email string) (bool, error) {
	var n int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
