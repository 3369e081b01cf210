package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nha-forte", hash)

	assert.True(t, CheckPassword("s3nha-forte", hash))
	assert.False(t, CheckPassword("outra-senha", hash))
	assert.False(t, CheckPassword("s3nha-forte", "not-a-hash"))
}
