package v1

import (
	"net/http"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/service"
	"github.com/gin-gonic/gin"
)

type MetricsController struct {
	metricsService *service.MetricsService
}

func NewMetricsController() *MetricsController {
	return &MetricsController{metricsService: service.NewMetricsService()}
}

// IngestMetrics handles POST /functions/v1/metrics-ingest
func (c *MetricsController) IngestMetrics(ctx *gin.Context) {
	var req entity.MetricsIngestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeBadRequest(ctx, err)
		return
	}

	principal := currentPrincipal(ctx)
	metric, err := c.metricsService.Ingest(ctx.Request.Context(), principal.ID, req)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "metrics": metric})
}
