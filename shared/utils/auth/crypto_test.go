package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, APIKeyPrefix))
	// 24 random bytes hex-encoded after the prefix
	assert.Len(t, key, len(APIKeyPrefix)+48)
}

func TestGenerateAPIKey_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateAPIKey()
		require.NoError(t, err)
		if seen[key] {
			t.Fatalf("duplicate api key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("welcome-to-demo-press"))
	assert.NoError(t, ValidateSlug("news2026"))

	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("Has-Uppercase"))
	assert.Error(t, ValidateSlug("has space"))
	assert.Error(t, ValidateSlug("has/slash"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
}
