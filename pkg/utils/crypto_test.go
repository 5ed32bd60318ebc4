package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("link-secret")

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "link-secret", hash)

	_, err = HashPassword(strings.Repeat("x", 100))
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, _ := HashPassword("link-secret")

	assert.True(t, CheckPasswordHash("link-secret", hash))
	assert.False(t, CheckPasswordHash("link-secreT", hash))
	assert.False(t, CheckPasswordHash("", hash))
	assert.False(t, CheckPasswordHash("link-secret", "not-a-bcrypt-hash"))
}
