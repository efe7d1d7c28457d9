package router

import (
	v1 "github.com/Ridwanabdusalam/lens-eye-metadata-vault/handler/v1"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/auth"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func SetupRouter() *gin.Engine {
	// 请求体出现未声明字段时直接 400
	binding.EnableDecoderDisallowUnknownFields = true

	imageController := v1.NewImageController()
	metricsController := v1.NewMetricsController()
	exportController := v1.NewExportController()
	dedupController := v1.NewDedupController()
	storageController := v1.NewStorageController()

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(v1.CORS())

	// OPTIONS 预检由 CORS 中间件处理，这里只需让路由命中
	r.OPTIONS("/*any", func(*gin.Context) {})

	functions := r.Group("/functions/v1")
	functions.Use(v1.RequireAuth(auth.Default))
	{
		functions.POST("/image-upload", imageController.UploadImage)
		functions.POST("/metrics-ingest", metricsController.IngestMetrics)
		functions.GET("/query-images", imageController.QueryImages)
		functions.POST("/update-tags", imageController.UpdateTags)
		functions.POST("/export-dataset", exportController.ExportDataset)
		functions.POST("/deduplication-job", dedupController.RunDeduplication)
	}

	objects := r.Group("/storage/v1/object")
	{
		objects.GET("/public/:bucket/*path", storageController.GetPublicObject)
		objects.GET("/sign/:bucket/*path", storageController.GetSignedObject)
	}

	return r
}
