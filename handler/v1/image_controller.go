package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ImageController struct {
	uploadService *service.ImageUploadService
	queryService  *service.QueryService
	tagService    *service.TagService
}

func NewImageController() *ImageController {
	return &ImageController{
		uploadService: service.NewImageUploadService(),
		queryService:  service.NewQueryService(),
		tagService:    service.NewTagService(),
	}
}

// UploadImage handles POST /functions/v1/image-upload
func (c *ImageController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		writeHTTPError(ctx, service.ErrNoFile)
		return
	}

	raw := strings.TrimSpace(ctx.PostForm("metadata"))
	if raw == "" {
		writeBadRequest(ctx, errors.New("Missing metadata"))
		return
	}

	var meta entity.ImageMetadata
	if err := binding.JSON.BindBody([]byte(raw), &meta); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	principal := currentPrincipal(ctx)
	result, err := c.uploadService.Upload(ctx.Request.Context(), principal.ID, file, meta)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// QueryImages handles GET /functions/v1/query-images
func (c *ImageController) QueryImages(ctx *gin.Context) {
	var params entity.ImageQueryParams
	if err := ctx.ShouldBindQuery(&params); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	page, err := c.queryService.Query(ctx.Request.Context(), params)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// UpdateTags handles POST /functions/v1/update-tags
func (c *ImageController) UpdateTags(ctx *gin.Context) {
	var req entity.TagUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	principal := currentPrincipal(ctx)
	image, err := c.tagService.Update(ctx.Request.Context(), principal.ID, req)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "image": image})
}
