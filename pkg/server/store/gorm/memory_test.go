package gorm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/db/dbtest"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

func TestMemoryStore_Upsert(t *testing.T) {
	database := dbtest.New(t)
	users := NewUsersStore(database)
	s := NewMemoryStore(database)

	user := newUser("mem@qq.com", false)
	require.NoError(t, users.CreateUser(user, nil))

	conf := 0.55
	first := &model.MemoryItem{UserID: user.ID, Kind: model.MemoryKindPref, Title: "偏好/喜欢", Content: "用户偏好：纯爱", Confidence: &conf}
	require.NoError(t, s.UpsertMemory(first))

	second := &model.MemoryItem{UserID: user.ID, Kind: model.MemoryKindPref, Title: "偏好/喜欢", Content: "用户偏好：推理"}
	require.NoError(t, s.UpsertMemory(second))
	assert.Equal(t, first.ID, second.ID)

	items, err := s.ListMemory(user.ID, "", 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "用户偏好：推理", items[0].Content)
	assert.Nil(t, items[0].Confidence)
}

func TestMemoryStore_OwnershipAndDelete(t *testing.T) {
	database := dbtest.New(t)
	users := NewUsersStore(database)
	s := NewMemoryStore(database)

	owner := newUser("own@qq.com", false)
	require.NoError(t, users.CreateUser(owner, nil))

	item := &model.MemoryItem{UserID: owner.ID, Title: "t", Content: "c"}
	require.NoError(t, s.CreateMemory(item))
	assert.Equal(t, model.MemoryKindFact, item.Kind)

	_, err := s.GetMemory(uuid.New(), item.ID)
	assert.ErrorIs(t, err, store.ErrMemoryNotFound)
	assert.ErrorIs(t, s.DeleteMemory(uuid.New(), item.ID), store.ErrMemoryNotFound)

	facts, err := s.ListMemory(owner.ID, model.MemoryKindFact, 10)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
	prefs, err := s.ListMemory(owner.ID, model.MemoryKindPref, 10)
	require.NoError(t, err)
	assert.Empty(t, prefs)

	require.NoError(t, s.DeleteMemory(owner.ID, item.ID))
	_, err = s.GetMemory(owner.ID, item.ID)
	assert.ErrorIs(t, err, store.ErrMemoryNotFound)
}
