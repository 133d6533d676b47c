package api

import (
	"fmt"
	"time"

	"recipe-finder/internal/api/handlers/admin"
	"recipe-finder/internal/api/handlers/health"
	recipeHandler "recipe-finder/internal/api/handlers/recipe"
	"recipe-finder/internal/api/middleware"
	"recipe-finder/internal/core/cache"
	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/infrastructure/store"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, st *store.Store, resultCache cache.Cache) (*gin.Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := admin.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 初始化服務
	base := recipeService.NewService(resultCache)
	index := recipeService.NewIngredientIndex(st, cfg.Index)
	ingredientSvc := recipeService.NewIngredientService(index)
	recipeSvc := recipeService.NewRecipeService(base, st, cfg.Search)
	redirectSvc := recipeService.NewRedirectService(base, st)

	common.LogInfo("Recipe services initialized successfully",
		zap.Bool("cache_enabled", resultCache != nil),
		zap.Bool("exclude_optional", cfg.Search.ExcludeOptional),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
	)

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, st, index)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	recipes := recipeHandler.NewHandler(recipeSvc, redirectSvc)

	// 公開食譜頁面，舊 slug 會 301 到目前網址
	router.GET("/recipes/:slug", recipes.HandleRecipePage)

	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		searchGroup := api.Group("/search")
		{
			searchGroup.GET("/recipes", recipes.HandleSearch)
			searchGroup.GET("/ingredients", recipeHandler.HandleIngredientSuggestions(ingredientSvc))
		}

		api.GET("/recipes", recipes.HandleList)
		api.GET("/redirects/check", recipes.HandleRedirectCheck)

		adminHandler := admin.NewHandler(redirectSvc, ingredientSvc)
		adminGroup := api.Group("/admin")
		adminGroup.Use(middleware.Deduplication(cfg.DedupWindow))
		{
			adminGroup.GET("/recipes/:slug", adminHandler.HandleGetRecipe)
			adminGroup.PUT("/recipes/:slug", adminHandler.HandleUpdateRecipe)
			adminGroup.GET("/redirects", adminHandler.HandleListRedirects)
			adminGroup.GET("/stats", adminHandler.HandleStats)
			adminGroup.POST("/ingredients/reindex", adminHandler.HandleReindex)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
