package admin

import (
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/db/dbtest"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
)

// MockUsersStore implements store.UsersStore for testing using testify/mock
type MockUsersStore struct {
	mock.Mock
}

func (m *MockUsersStore) GetUser(id uuid.UUID) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) EmailExists(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersStore) CreateUser(user *model.User, profile *model.UserProfile) error {
	return m.Called(user, profile).Error(0)
}

func (m *MockUsersStore) UpdateUser(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUsersStore) ListUsers() ([]model.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUsersStore) CountActiveAdmins() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsersStore) DeleteUser(id uuid.UUID) error {
	return m.Called(id).Error(0)
}

func quietAuditor(t *testing.T, s *audit.Store) *audit.Auditor {
	t.Helper()
	logger := audit.NewLogger()
	logger.SetWriter(io.Discard)
	return audit.New(logger, s, nil)
}

func adminConfig() *config.Config {
	cfg := config.Default()
	cfg.AdminEmail = " Root@QQ.com "
	cfg.AdminPassword = "secret123"
	cfg.AdminUsername = "root"
	return cfg
}

func TestEnsureAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"no email", "", "secret123"},
		{"no password", "root@qq.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &MockUsersStore{}
			cfg := config.Default()
			cfg.AdminEmail = tt.email
			cfg.AdminPassword = tt.password

			outcome, err := EnsureAdmin(users, cfg, quietAuditor(t, nil))
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, outcome)
			users.AssertNotCalled(t, "GetUserByEmail", mock.Anything)
		})
	}
}

func TestEnsureAdmin_CreatesAndRestores(t *testing.T) {
	database := dbtest.New(t)
	users := gormstore.NewUsersStore(database)
	auditor := quietAuditor(t, audit.NewStore(database))
	cfg := adminConfig()

	outcome, err := EnsureAdmin(users, cfg, auditor)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	user, err := users.GetUserByEmail("root@qq.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsActive)
	assert.Equal(t, "root", user.Username)
	assert.True(t, hash.Verify(user.HashedPassword, "secret123"))

	outcome, err = EnsureAdmin(users, cfg, auditor)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	user.IsAdmin = false
	user.IsActive = false
	require.NoError(t, users.UpdateUser(user))

	cfg.AdminPassword = "changed-password"
	outcome, err = EnsureAdmin(users, cfg, auditor)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRestored, outcome)

	user, err = users.GetUserByEmail("root@qq.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsActive)
	assert.True(t, hash.Verify(user.HashedPassword, "secret123"))

	logs, err := gormstore.NewAuditLogsStore(database).ListAuditLogs(store.AuditLogFilter{
		Action: audit.ActionAdminEnsured,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestEnsureAdmin_LookupFailure(t *testing.T) {
	users := &MockUsersStore{}
	users.On("GetUserByEmail", "root@qq.com").Return(nil, errors.New("connection refused"))

	_, err := EnsureAdmin(users, adminConfig(), quietAuditor(t, nil))
	assert.ErrorContains(t, err, "connection refused")
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}
