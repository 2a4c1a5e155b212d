package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Transaction listings
		v1.GET("/transactions/recent", handler.GetRecentTransactions)
		v1.GET("/transactions/category", handler.GetTransactionsByCategory)

		// Spending summaries
		v1.GET("/spending/categories", handler.GetSpendingByCategory)
		v1.GET("/spending/categories/:user_id", handler.GetUserSpendingByCategory)

		// Merchant and payment method aggregates
		v1.GET("/merchants/top", handler.GetTopMerchants)
		v1.GET("/payment-methods", handler.GetPaymentMethodStats)

		// Hour bucket listings
		v1.GET("/hourly/:bucket", handler.GetHourlyTransactions)
	}
}
