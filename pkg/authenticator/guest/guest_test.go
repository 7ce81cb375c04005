package guest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/db/dbtest"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
)

func TestAuthenticate_CreatesGuest(t *testing.T) {
	database := dbtest.New(t)
	users := gormstore.NewUsersStore(database)
	profiles := gormstore.NewProfilesStore(database)
	auth := New(users)

	a, err := auth.Authenticate(context.Background(), authenticator.AuthenticatorInput{})
	require.NoError(t, err)
	b, err := auth.Authenticate(context.Background(), authenticator.AuthenticatorInput{})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsGuest())
	assert.True(t, a.IsActive)
	assert.False(t, a.IsAdmin)
	assert.Regexp(t, `^guest_[0-9a-f]{10}$`, a.Username)
	assert.True(t, strings.HasPrefix(a.Email, a.Username+"@"))

	profile, err := profiles.GetProfile(a.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, a.Username, *profile.DisplayName)
}
