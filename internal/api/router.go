package api

import (
	"context"
	"net/http"
	"time"

	"allergy-menu-guard/internal/api/handlers/admin"
	"allergy-menu-guard/internal/api/handlers/health"
	"allergy-menu-guard/internal/api/handlers/ingredient"
	"allergy-menu-guard/internal/api/handlers/menu"
	"allergy-menu-guard/internal/api/handlers/user"
	"allergy-menu-guard/internal/api/middleware"
	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/image"
	"allergy-menu-guard/internal/core/ocr"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/infrastructure/metrics"
	"allergy-menu-guard/internal/infrastructure/persistence"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務；OCR、Repository、Metrics、Queue 可為 nil
type Dependencies struct {
	Config       *config.Config
	Engine       *analysis.Engine
	Images       *image.Service
	OCR          *ocr.Client
	Repository   *persistence.Repository
	Metrics      *metrics.Metrics
	Queue        *queue.Manager
	Deduplicator *middleware.Deduplicator
}

// SetupRouter 設置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Engine, deps.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	if deps.Metrics != nil {
		router.GET(cfg.Metrics.Path, deps.Metrics.Handler())
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	menuHandler := menu.NewHandler(deps.Engine, deps.Images, deps.OCR, deps.Repository, cfg.OCR.Translate)
	menuGroup := api.Group("/menu")
	{
		menuGroup.POST("/analyze", menuHandler.Analyze)
		menuGroup.POST("/analyze/batch", menuHandler.AnalyzeBatch)
		if deps.Deduplicator != nil {
			menuGroup.POST("/analyze/image", deps.Deduplicator.Middleware(), menuHandler.AnalyzeImage)
		} else {
			menuGroup.POST("/analyze/image", menuHandler.AnalyzeImage)
		}
		menuGroup.POST("/similar", menuHandler.Similar)
		menuGroup.POST("/safe", menuHandler.Safe)
		menuGroup.GET("/by-ingredient", menuHandler.ByIngredient)
	}

	ingredientHandler := ingredient.NewHandler(deps.Engine)
	ingredientGroup := api.Group("/ingredient")
	{
		ingredientGroup.POST("/extract", ingredientHandler.Extract)
		ingredientGroup.POST("/normalize", ingredientHandler.Normalize)
		ingredientGroup.GET("/suggest", ingredientHandler.Suggest)
	}

	api.POST("/risk/check", ingredientHandler.CheckRisk)

	userHandler := user.NewHandler(deps.Repository)
	userGroup := api.Group("/users/:id")
	{
		userGroup.GET("/allergies", userHandler.GetAllergies)
		userGroup.PUT("/allergies", userHandler.PutAllergies)
		userGroup.GET("/history", userHandler.History)
	}

	adminHandler := admin.NewHandler(deps.Engine, deps.Queue)
	adminGroup := api.Group("/admin")
	{
		adminGroup.GET("/models", adminHandler.Models)
		adminGroup.POST("/retrain", adminHandler.Retrain)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
			Details: c.Request.URL.Path,
		})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("ocr_enabled", deps.OCR != nil),
		zap.Bool("database_enabled", deps.Repository != nil),
		zap.Bool("metrics_enabled", deps.Metrics != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// timeout 為每個請求設置逾時；處理器未寫出回應就逾時時回 504
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", d),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: common.ErrGatewayTimeout.Message,
				Details: d.String(),
			})
		}
	}
}
