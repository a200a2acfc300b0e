package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password", DefaultBcryptCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-password", hash)
	assert.True(t, CheckPassword("s3cret-password", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("s3cret-password", 0)
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret-password", hash))
}
