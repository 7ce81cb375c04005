package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordAndVerify(t *testing.T) {
	hashed, err := Password("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2"))

	assert.True(t, Verify(hashed, "secret1"))
	assert.False(t, Verify(hashed, "secret2"))
	assert.False(t, Verify("not-a-hash", "secret1"))
}

func TestPassword_LongInput(t *testing.T) {
	long := strings.Repeat("a", 128)
	hashed, err := Password(long)
	require.NoError(t, err)
	assert.True(t, Verify(hashed, long))
}
