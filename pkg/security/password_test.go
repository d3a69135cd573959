package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))
	assert.False(t, CheckPassword("secret1", "not-a-hash"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.Error(t, err)
}

func TestBurnPasswordCheck(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	assert.NotPanics(t, func() {
		BurnPasswordCheck("whatever")
		BurnPasswordCheck("")
	})
}
