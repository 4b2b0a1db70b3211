package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		password := GeneratePassword()

		assert.Len(t, password, GuestPasswordLength)
		for _, char := range password {
			assert.Contains(t, guestPasswordAlphabet, string(char),
				"password should only contain uppercase letters & digits")
		}

		seen[password] = true
	}

	// Not a uniqueness guarantee - just a sanity check that the
	// generator isn't returning a constant.
	assert.Greater(t, len(seen), 1)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	password := GeneratePassword()

	hash, err := HashPassword(password)
	assert.Nil(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, CheckPasswordHash(password, hash))
	assert.False(t, CheckPasswordHash(strings.ToLower(password), hash))
	assert.False(t, CheckPasswordHash("WRONGPW1", hash))
}
