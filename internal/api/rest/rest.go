package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes (public read access)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/assets", handler.ListAssets)
		v1.GET("/assets/:token_id", handler.GetAsset)
		v1.GET("/assets/:token_id/owners", handler.GetAssetOwners)
		v1.GET("/assets/:token_id/owners/top", handler.GetTopShareholder)

		v1.GET("/owners/:address/assets", handler.GetOwnerAssets)
		v1.GET("/owners/:address/assets/:token_id/stake", handler.GetOwnershipStake)

		v1.GET("/listings", handler.ListListings)
		v1.GET("/listings/:listing_id", handler.GetListing)
	}
}
