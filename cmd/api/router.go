package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricing-service/internal/shared/middleware"
	"pricing-service/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Tracing(c.Config.App.Name),
		middleware.Logger(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupPublicRoutes(v1, c)
		setupPricingRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// PUBLIC ROUTES
// ========================================
func setupPublicRoutes(v1 *gin.RouterGroup, c *container.Container) {
	discounts := v1.Group("/discounts")
	{
		discounts.GET("/active", c.PublicHandler.ListActiveDiscounts)
	}
}

// ========================================
// PRICING ROUTES
// ========================================
func setupPricingRoutes(v1 *gin.RouterGroup, c *container.Container) {
	pricing := v1.Group("/pricing")
	{
		pricing.POST("/quote", c.PublicHandler.QuoteProduct)
		pricing.POST("/cart", c.PublicHandler.PriceCart)
		pricing.POST("/confirm",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.RequireRole(middleware.RoleService, middleware.RoleAdmin),
			c.PublicHandler.ConfirmPricing,
		)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		discounts := admin.Group("/discounts")
		{
			discounts.POST("", c.AdminHandler.CreateRule)
			discounts.GET("", c.AdminHandler.ListRules)
			discounts.POST("/reconcile", c.AdminHandler.Reconcile)
			discounts.GET("/:id", c.AdminHandler.GetRule)
			discounts.PATCH("/:id", c.AdminHandler.UpdateRule)
			discounts.DELETE("/:id", c.AdminHandler.DeleteRule)
		}

		admin.GET("/orders/:id/discounts", c.AdminHandler.ListOrderDiscounts)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		dbStatus := "ok"
		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = "unavailable"
			status = "degraded"
		}

		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disabled"
		} else if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "unavailable"
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	}
}
