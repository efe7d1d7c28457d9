package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/auth"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/db"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/router"

	"github.com/gin-gonic/gin"
)

func main() {
	// 默认使用 release，避免线上以 debug 模式启动
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Init config failed: %v", err)
	}
	logger := config.InitLogger()

	// 2. Initialize database
	if err := db.InitDB(); err != nil {
		log.Fatalf("Init database failed: %v", err)
	}

	// 3. Redis is optional, only the signed url cache uses it
	if err := config.InitRedis(); err != nil {
		if !errors.Is(err, config.ErrRedisHostEmpty) {
			log.Fatalf("Init redis failed: %v", err)
		}
		logger.Info("redis disabled, signed urls will not be cached")
	}
	defer config.CloseRedis()

	// 4. Object storage and auth
	if err := storage.InitStorage(); err != nil {
		log.Fatalf("Init storage failed: %v", err)
	}
	if err := auth.InitAuth(); err != nil {
		log.Fatalf("Init auth failed: %v", err)
	}

	// 5. Setup router
	r := router.SetupRouter()

	// 6. Start server
	port := config.AppConfig.Server.Port
	logger.Info("server starting", "port", port, "public_base_url", config.AppConfig.Server.PublicBaseURL)
	fmt.Printf("Server is running on port %d...\n", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Server run failed: %v", err)
	}
}
