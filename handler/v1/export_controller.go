package v1

import (
	"fmt"
	"net/http"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/service"
	"github.com/gin-gonic/gin"
)

type ExportController struct {
	exportService *service.ExportService
}

func NewExportController() *ExportController {
	return &ExportController{exportService: service.NewExportService()}
}

// ExportDataset handles POST /functions/v1/export-dataset
func (c *ExportController) ExportDataset(ctx *gin.Context) {
	var req entity.ExportRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	principal := currentPrincipal(ctx)
	result, err := c.exportService.Export(ctx.Request.Context(), principal.ID, req)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	ctx.Data(http.StatusOK, result.ContentType, result.Body)
}
