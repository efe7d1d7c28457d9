package v1

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/dao"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/auth"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	principalContextKey = "vault.principal"
	errImageNotFound    = "Image not found or access denied"
)

func handlerLogger() *slog.Logger {
	return config.Logger("handler")
}

// currentPrincipal 由 RequireAuth 写入
func currentPrincipal(ctx *gin.Context) auth.Principal {
	value, ok := ctx.Get(principalContextKey)
	if !ok {
		return auth.Principal{}
	}
	principal, _ := value.(auth.Principal)
	return principal
}

// bindOptionalJSON 允许空 body，其余解析错误照常返回
func bindOptionalJSON(ctx *gin.Context, obj interface{}) error {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return nil
	}
	if err := ctx.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadRequest(ctx *gin.Context, err error) {
	handlerLogger().Warn("request failed",
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"status", http.StatusBadRequest,
		"error", err,
	)
	ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func writeHTTPError(ctx *gin.Context, err error) {
	logger := handlerLogger().With(
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
	)

	var opErr *service.OperationError
	var dedupErr *service.DedupDeleteError

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrNoFile),
		errors.Is(err, dao.ErrInvalidID),
		errors.Is(err, dao.ErrInvalidAction),
		errors.Is(err, dao.ErrUnknownMetric):
		logger.Warn("request failed", "status", http.StatusBadRequest, "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Warn("request failed", "status", http.StatusNotFound, "error", err)
		ctx.JSON(http.StatusNotFound, gin.H{"error": errImageNotFound})
	case errors.As(err, &dedupErr):
		logger.Error("request failed", "status", http.StatusInternalServerError, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete duplicate records",
			"details": dedupErr.Err.Error(),
			"summary": dedupErr.Summary,
		})
	case errors.As(err, &opErr):
		logger.Error("request failed", "status", http.StatusInternalServerError, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": opErr.Op, "details": opErr.Err.Error()})
	default:
		logger.Error("request failed", "status", http.StatusInternalServerError, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}
