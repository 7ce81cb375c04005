package recommend

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type mockResources struct {
	store.ResourcesStore
	mock.Mock
}

func (m *mockResources) TopSavedTags(userID uuid.UUID, since time.Time, limit int) ([]string, error) {
	args := m.Called(userID, since, limit)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockResources) DismissedSince(userID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	args := m.Called(userID, since)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockResources) ByTags(tags []string, exclude []uuid.UUID, limit int) ([]model.Resource, error) {
	args := m.Called(tags, exclude, limit)
	return args.Get(0).([]model.Resource), args.Error(1)
}

func (m *mockResources) RecordEvent(event *model.ResourceEvent) error {
	return m.Called(event).Error(0)
}

type mockProfiles struct {
	store.ProfilesStore
	mock.Mock
}

func (m *mockProfiles) GetProfile(userID uuid.UUID) (*model.UserProfile, error) {
	args := m.Called(userID)
	p, _ := args.Get(0).(*model.UserProfile)
	return p, args.Error(1)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRecommend_DefaultTags(t *testing.T) {
	userID := uuid.New()
	resources := &mockResources{}
	profiles := &mockProfiles{}

	profiles.On("GetProfile", userID).Return(nil, nil)
	resources.On("TopSavedTags", userID, fixedNow.Add(-90*24*time.Hour), 5).Return([]string{}, nil)
	resources.On("DismissedSince", userID, fixedNow.Add(-30*24*time.Hour)).Return([]uuid.UUID{}, nil)
	resources.On("ByTags", DefaultTags, []uuid.UUID{}, 1).Return([]model.Resource{}, nil)

	res, err := New(resources, profiles).WithClock(func() time.Time { return fixedNow }).Recommend(userID, 0, 9999)
	require.NoError(t, err)

	assert.Equal(t, []string{BasedOnDefault}, res.BasedOn)
	assert.Equal(t, DefaultTags, res.Tags)
	assert.NotNil(t, res.Items)
	resources.AssertNotCalled(t, "RecordEvent", mock.Anything)
}

func TestRecommend_PreferredAndSaved(t *testing.T) {
	userID := uuid.New()
	resources := &mockResources{}
	profiles := &mockProfiles{}

	profiles.On("GetProfile", userID).Return(&model.UserProfile{
		UserID:      userID,
		Preferences: datatypes.JSON(`{"preferred_tags":["纯爱","推理"]}`),
	}, nil)
	dismissed := []uuid.UUID{uuid.New()}
	picked := []model.Resource{{ID: uuid.New(), Title: "A"}, {ID: uuid.New(), Title: "B"}}

	resources.On("TopSavedTags", userID, mock.Anything, 5).Return([]string{"推理", "致郁"}, nil)
	resources.On("DismissedSince", userID, mock.Anything).Return(dismissed, nil)
	resources.On("ByTags", []string{"纯爱", "推理", "致郁"}, dismissed, 20).Return(picked, nil)
	resources.On("RecordEvent", mock.MatchedBy(func(e *model.ResourceEvent) bool {
		return e.UserID == userID && e.EventType == model.EventTypeRecommended
	})).Return(nil).Twice()

	res, err := New(resources, profiles).Recommend(userID, 50, 7)
	require.NoError(t, err)

	assert.Equal(t, []string{BasedOnPreferredTags, BasedOnSaved}, res.BasedOn)
	assert.Equal(t, []string{"纯爱", "推理", "致郁"}, res.Tags)
	assert.Equal(t, picked, res.Items)
	resources.AssertExpectations(t)
}

func TestRecommend_CapsTags(t *testing.T) {
	userID := uuid.New()
	resources := &mockResources{}
	profiles := &mockProfiles{}

	profiles.On("GetProfile", userID).Return(&model.UserProfile{
		Preferences: datatypes.JSON(`{"preferred_tags":["1","2","3","4","5","6","7","8","9","10","11","12"]}`),
	}, nil)
	resources.On("TopSavedTags", userID, mock.Anything, 5).Return([]string{"a", "b", "c", "d", "e"}, nil)
	resources.On("DismissedSince", userID, mock.Anything).Return([]uuid.UUID{}, nil)
	resources.On("ByTags", mock.Anything, mock.Anything, 5).Return([]model.Resource{}, nil)

	res, err := New(resources, profiles).Recommend(userID, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "a", "b", "c", "d", "e"}, res.Tags)
}

func TestRecommend_StoreError(t *testing.T) {
	userID := uuid.New()
	resources := &mockResources{}
	profiles := &mockProfiles{}
	profiles.On("GetProfile", userID).Return(nil, errors.New("db down"))

	_, err := New(resources, profiles).Recommend(userID, 5, 7)
	assert.ErrorContains(t, err, "db down")
}
