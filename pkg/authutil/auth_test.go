package authutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestNewToken_RoundTrip(t *testing.T) {
	raw, err := NewToken("secret", TokenAccess, 42, "admin", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("secret", raw, TokenAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "admin", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	access, err := NewToken("secret", TokenAccess, 1, "u", "staff", time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = ParseToken("secret", access, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token used as refresh token")

	expired, err := NewToken("secret", TokenAccess, 1, "u", "staff", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = ParseToken("secret", "not-a-jwt", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
