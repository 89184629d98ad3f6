package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-tier-pass/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, limitCfg middleware.RateLimitConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	auth := middleware.Auth(authCfg)
	limit := middleware.RateLimit(limitCfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Query endpoints (public read access)
		v1.GET("/tokens/next-id", handler.GetNextTokenID)
		v1.GET("/tokens/:id", handler.GetToken)
		v1.GET("/tokens/:id/owner", handler.GetOwner)
		v1.GET("/tokens/:id/history", handler.GetHistory)
		v1.GET("/owners/:account/token", handler.GetAccountToken)
		v1.GET("/tiers/:tier", handler.GetTier)
		v1.GET("/config", handler.GetConfig)
		v1.GET("/balances/:account", handler.GetBalance)
		v1.GET("/transfers", handler.ListTransfers)
		v1.GET("/changes", handler.GetChanges)

		// Holder operations (requires authentication, the caller is the JWT subject)
		holder := v1.Group("/tokens", auth, limit)
		holder.POST("", handler.Mint)
		holder.POST("/:id/upgrade", handler.UpgradeTier)
		holder.DELETE("/:id", handler.Burn)
		holder.POST("/:id/transfer", handler.Transfer)
		holder.PUT("/:id/metadata", handler.UpdateMetadata)
		holder.POST("/:id/expiry", handler.ExtendExpiry)

		// Admin operations (requires authentication, the admin check happens in the registry)
		admin := v1.Group("/admin", auth, limit)
		admin.POST("/tokens", handler.AdminMint)
		admin.POST("/authority", handler.SetAuthority)
		admin.POST("/mint-fee", handler.SetMintFee)
		admin.POST("/pause", handler.Pause)
		admin.PUT("/tiers/:tier/price", handler.SetTierPrice)
		admin.PUT("/tiers/:tier/active", handler.SetTierActive)
		admin.POST("/base-uri", handler.SetBaseURI)
	}
}
