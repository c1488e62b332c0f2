package auth

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashCode(t *testing.T) {
	hash, err := HashCode("48213", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "48213", hash)
	assert.True(t, CheckCodeHash("48213", hash))
	assert.False(t, CheckCodeHash("48214", hash))
	assert.False(t, CheckCodeHash("48213", "not-a-hash"))
}

func TestHashCode_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashCode("12345", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 5)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, codeMin)
		assert.LessOrEqual(t, n, codeMax)
	}
}
