package v1

import (
	"errors"
	"net/http"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/auth"
	"github.com/gin-gonic/gin"
)

// CORS 给所有响应加跨域头，OPTIONS 在鉴权前直接返回
func CORS() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if ctx.Request.Method == http.MethodOptions {
			ctx.String(http.StatusOK, "ok")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequireAuth 校验 Bearer token，并把 Principal 放进上下文
func RequireAuth(verifier *auth.JWTVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		logger := handlerLogger().With("method", ctx.Request.Method, "path", ctx.FullPath())

		token, err := auth.BearerToken(ctx.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("missing bearer token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if verifier == nil {
			logger.Error("jwt verifier is not initialized")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			logger.Warn("token rejected", "error", err)
			if errors.Is(err, auth.ErrMissingSubject) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid JWT"})
			return
		}

		ctx.Set(principalContextKey, principal)
		ctx.Next()
	}
}
