package v1

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/gin-gonic/gin"
)

type StorageController struct {
	bucket *storage.Bucket
}

func NewStorageController() *StorageController {
	return &StorageController{bucket: storage.Default}
}

// objectPath 校验 bucket 名并取出对象路径，失败时已经写好响应
func (c *StorageController) objectPath(ctx *gin.Context) (string, bool) {
	if c.bucket == nil || ctx.Param("bucket") != c.bucket.Name {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Bucket not found"})
		return "", false
	}
	objectPath, err := storage.CleanObjectPath(ctx.Param("path"))
	if err != nil {
		writeBadRequest(ctx, err)
		return "", false
	}
	return objectPath, true
}

func (c *StorageController) stream(ctx *gin.Context, objectPath string) {
	rc, err := c.bucket.Open(ctx.Request.Context(), objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			handlerLogger().Warn("object not found", "path", objectPath)
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
			return
		}
		writeHTTPError(ctx, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

// GetPublicObject handles GET /storage/v1/object/public/:bucket/*path
func (c *StorageController) GetPublicObject(ctx *gin.Context) {
	objectPath, ok := c.objectPath(ctx)
	if !ok {
		return
	}
	c.stream(ctx, objectPath)
}

// GetSignedObject handles GET /storage/v1/object/sign/:bucket/*path?token=
func (c *StorageController) GetSignedObject(ctx *gin.Context) {
	objectPath, ok := c.objectPath(ctx)
	if !ok {
		return
	}

	if err := c.bucket.VerifySignedToken(objectPath, ctx.Query("token")); err != nil {
		handlerLogger().Warn("signed url rejected", "path", objectPath, "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "InvalidJWT"})
		return
	}
	c.stream(ctx, objectPath)
}
