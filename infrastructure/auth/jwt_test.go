package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, ErrMissingToken, header)
	}
}

func TestJWTVerifier(t *testing.T) {
	verifier, err := NewJWTVerifier("unit-test-secret", "authenticated")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token, err := verifier.IssueToken("user-1", "qa@example.com", time.Hour)
		require.NoError(t, err)

		principal, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.ID)
		assert.Equal(t, "qa@example.com", principal.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := verifier.IssueToken("user-1", "", -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTVerifier("another-secret", "authenticated")
		require.NoError(t, err)
		token, err := other.IssueToken("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewJWTVerifier("unit-test-secret", "anon")
		require.NoError(t, err)
		token, err := other.IssueToken("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.ErrorIs(t, err, ErrSecretEmpty)
}
