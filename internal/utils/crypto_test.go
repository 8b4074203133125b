package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureCode(t *testing.T) {
	a, err := GenerateSecureCode(12)
	require.NoError(t, err)
	b, err := GenerateSecureCode(12)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}
