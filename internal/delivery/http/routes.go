package http

import (
	"github.com/gin-gonic/gin"

	"github.com/beautycare/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(LoggingMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	router.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		profiles := v1.Group("/profiles")
		{
			profiles.POST("/palette", handler.BuildPalette)
			profiles.POST("/skincare", handler.BuildSkincare)
			profiles.GET("/:user_id", handler.GetProfile)
		}

		v1.POST("/selections", handler.Select)
		v1.GET("/recommendations/:user_id/:category", handler.Recommendations)

		carts := v1.Group("/carts/:user_id")
		{
			carts.GET("", handler.GetCart)
			carts.DELETE("", handler.ClearCart)
			carts.POST("/items", handler.AddItem)
			carts.PUT("/items/:product_id", handler.SetItemQty)
			carts.DELETE("/items/:product_id", handler.RemoveItem)
			carts.POST("/restore", handler.RestoreItem)
			carts.POST("/substitute", handler.Substitute)
			carts.POST("/checkout", handler.Checkout)
		}

		v1.POST("/callbacks/:user_id", handler.HandleCallback)
		v1.POST("/affiliate/validate", handler.ValidateLinks)

		admin := v1.Group("/admin")
		{
			admin.POST("/catalog/reload", handler.ReloadCatalog)
			admin.GET("/analytics/summary", handler.AnalyticsSummary)
		}
	}

	return router
}
