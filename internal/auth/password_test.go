package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	require.True(t, IsBcryptHash(hash))

	assert.True(t, VerifyPassword("SecurePass123!", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPasswordLegacyDigest(t *testing.T) {
	digest := LegacyDigest("SecurePass123!")

	assert.True(t, VerifyPassword("SecurePass123!", digest))
	assert.False(t, VerifyPassword("wrong-password", digest))

	// Stored digest casing must not matter
	assert.True(t, VerifyPassword("SecurePass123!", strings.ToUpper(digest)))
}

func TestVerifyPasswordMalformedHashFailsClosed(t *testing.T) {
	assert.False(t, VerifyPassword("SecurePass123!", "not-a-valid-hash"))
	assert.False(t, VerifyPassword("SecurePass123!", ""))
	assert.False(t, VerifyPassword("SecurePass123!", "$2x$12$garbage"))
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("SecurePass123!")
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash))
	assert.True(t, NeedsRehash(LegacyDigest("SecurePass123!")))
	assert.True(t, NeedsRehash("not-a-valid-hash"))
}
