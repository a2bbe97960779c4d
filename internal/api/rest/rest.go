package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-ticket-market/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Public read access
		v1.GET("/listings/:id", handler.GetListing)
		v1.GET("/auctions/:id", handler.GetAuction)
		v1.GET("/offers/:id", handler.GetOffer)
		v1.GET("/sales/:id", handler.GetSale)
		v1.GET("/assets/:contract/:token_id/sales", handler.ListAssetSales)
		v1.GET("/stats", handler.GetStats)
		v1.GET("/settings", handler.GetSettings)
		v1.GET("/balances/:address", handler.GetBalance)

		// Market operations act as the authenticated caller
		authed := v1.Group("", middleware.Auth(authCfg))
		{
			authed.POST("/listings", handler.CreateListing)
			authed.DELETE("/listings/:id", handler.CancelListing)
			authed.POST("/listings/:id/buy", handler.BuyListing)

			authed.POST("/auctions", handler.CreateAuction)
			authed.POST("/auctions/:id/bids", handler.PlaceBid)
			authed.POST("/auctions/:id/end", handler.EndAuction)

			authed.POST("/offers", handler.MakeOffer)
			authed.POST("/offers/:id/accept", handler.AcceptOffer)
			authed.DELETE("/offers/:id", handler.CancelOffer)
		}

		// Operator endpoints (requires API key authentication only)
		admin := v1.Group("/admin", middleware.APIKeyAuth(authCfg))
		{
			admin.PUT("/platform-fee", handler.SetPlatformFee)
			admin.PUT("/platform-contract", handler.SetPlatformContract)
			admin.POST("/withdraw", handler.WithdrawFees)
			admin.POST("/deposits", handler.Deposit)
		}
	}
}
