package api

import (
	"time"

	"nutrition-lookup/internal/api/handlers/health"
	"nutrition-lookup/internal/api/handlers/lookup"
	"nutrition-lookup/internal/api/middleware"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// 未設定時的請求超時
	defaultRequestTimeout = 10 * time.Second
	// 未設定時的請求體大小限制 (64KB)
	defaultMaxBodySize = 64 << 10
)

// SetupRouter 設置路由；reporter 可為 nil
func SetupRouter(cfg *config.Config, service lookup.Service, reporter health.StatusReporter) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.NewString()
	})))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 健康檢查路由不受限流與超時影響
	healthHandler := health.NewHandler(cfg.App.Version, reporter)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.BodySizeLimit(maxBodySize))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.RequestTimeout(timeout))
	{
		lookupHandler := lookup.NewHandler(service, cfg.App.Debug)

		nutritionGroup := api.Group("/nutrition")
		{
			// 文字查詢
			nutritionGroup.POST("/lookup", lookupHandler.HandleLookup)

			// 條碼查詢
			nutritionGroup.GET("/barcode/:code", lookupHandler.HandleBarcode)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}
