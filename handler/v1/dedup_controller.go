package v1

import (
	"net/http"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/service"
	"github.com/gin-gonic/gin"
)

type DedupController struct {
	dedupService *service.DedupService
}

func NewDedupController() *DedupController {
	return &DedupController{dedupService: service.NewDedupService()}
}

// RunDeduplication handles POST /functions/v1/deduplication-job
func (c *DedupController) RunDeduplication(ctx *gin.Context) {
	var req entity.DedupRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	principal := currentPrincipal(ctx)
	result, err := c.dedupService.Run(ctx.Request.Context(), principal.ID, req)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	resp := gin.H{"success": true, "summary": result.Summary}
	if result.Summary.DryRun {
		groups := result.DuplicateGroups
		if groups == nil {
			groups = []entity.DuplicateGroup{}
		}
		resp["duplicate_groups"] = groups
	}
	ctx.JSON(http.StatusOK, resp)
}
