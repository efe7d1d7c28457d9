package v1_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSPreflight(t *testing.T) {
	for _, path := range []string{"/functions/v1/image-upload", "/functions/v1/query-images", "/anything"} {
		w := performRequest(testRouter, http.MethodOptions, path, nil, "")

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "ok", w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing bearer", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/functions/v1/query-images", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("garbage token", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/functions/v1/query-images", nil, "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Invalid JWT"}`, w.Body.String())
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
		require.NoError(t, err)

		w := performRequest(testRouter, http.MethodGet, "/functions/v1/query-images", nil, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Invalid JWT"}`, w.Body.String())
	})

	t.Run("valid token", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/functions/v1/query-images?limit=1", nil, mustIssueToken(t, "user-1"))
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}
