package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, userID string, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifierVerify(t *testing.T) {
	v := NewVerifier("test-secret")

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, "test-secret", "user-123", time.Hour)
		userID, err := v.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", userID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", "user-123", time.Hour)
		_, err := v.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, "test-secret", "user-123", -time.Hour)
		_, err := v.Verify(token)
		assert.Error(t, err)
	})

	t.Run("missing user_id claim", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = v.Verify(signed)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		assert.Error(t, err)
	})
}

func TestExtractBearer(t *testing.T) {
	t.Run("empty header", func(t *testing.T) {
		_, err := ExtractBearer("")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("bearer prefix", func(t *testing.T) {
		token, err := ExtractBearer("Bearer abc.def.ghi")
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("bearer prefix with nothing after it", func(t *testing.T) {
		_, err := ExtractBearer("Bearer ")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("bare token, no header syntax", func(t *testing.T) {
		token, err := ExtractBearer("abc.def.ghi")
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})
}
