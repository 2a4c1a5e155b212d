package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paystream/payment-analytics/internal/api/rest/dto"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetRecentTransactions lists a user's most recent transactions
	// GET /api/v1/transactions/recent?user_id=<id>&limit=<limit>
	GetRecentTransactions(c *gin.Context)

	// GetTransactionsByCategory lists a user's transactions within one category
	// GET /api/v1/transactions/category?user_id=<id>&category=<category>&limit=<limit>
	GetTransactionsByCategory(c *gin.Context)

	// GetSpendingByCategory returns the running totals per category
	// GET /api/v1/spending/categories
	GetSpendingByCategory(c *gin.Context)

	// GetUserSpendingByCategory returns one user's running totals per category
	// GET /api/v1/spending/categories/:user_id
	GetUserSpendingByCategory(c *gin.Context)

	// GetTopMerchants returns merchants ordered by total spend
	// GET /api/v1/merchants/top?limit=<limit>
	GetTopMerchants(c *gin.Context)

	// GetPaymentMethodStats returns the running totals per payment method
	// GET /api/v1/payment-methods
	GetPaymentMethodStats(c *gin.Context)

	// GetHourlyTransactions lists the transactions of one hour bucket
	// GET /api/v1/hourly/:bucket?limit=<limit>
	GetHourlyTransactions(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.ViewStore
}

// NewHandler creates a new REST handler
func NewHandler(st store.ViewStore) Handler {
	return &handler{store: st}
}

// GetRecentTransactions lists a user's most recent transactions, newest first
func (h *handler) GetRecentTransactions(c *gin.Context) {
	params, err := ParseTransactionsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	rows, err := h.store.RecentTransactionsByUser(c.Request.Context(), params.UserID, params.Limit)
	if err != nil {
		respondInternalError(c, err, "Failed to fetch transactions",
			zap.String("user_id", params.UserID))
		return
	}

	transactions := make([]dto.TransactionResponse, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, dto.FromTransactionByUser(row))
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      params.UserID,
		"transactions": transactions,
	})
}

// GetTransactionsByCategory lists a user's transactions within one category
func (h *handler) GetTransactionsByCategory(c *gin.Context) {
	params, err := ParseCategoryTransactionsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	rows, err := h.store.TransactionsByCategory(c.Request.Context(), params.UserID, params.Category, params.Limit)
	if err != nil {
		respondInternalError(c, err, "Failed to fetch transactions",
			zap.String("user_id", params.UserID),
			zap.String("category", params.Category))
		return
	}

	transactions := make([]dto.TransactionResponse, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, dto.FromTransactionByCategory(row))
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      params.UserID,
		"category":     params.Category,
		"transactions": transactions,
	})
}

// GetSpendingByCategory returns the running totals per category
func (h *handler) GetSpendingByCategory(c *gin.Context) {
	rows, err := h.store.SpendingByCategory(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to fetch category spending")
		return
	}

	categories := make([]dto.CategorySpendingResponse, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, dto.FromSpendingByCategory(row))
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetUserSpendingByCategory returns one user's running totals per category
func (h *handler) GetUserSpendingByCategory(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	rows, err := h.store.SpendingByUserCategory(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to fetch user category spending",
			zap.String("user_id", userID))
		return
	}

	categories := make([]dto.CategorySpendingResponse, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, dto.FromSpendingByUserCategory(row))
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"categories": categories,
	})
}

// GetTopMerchants returns merchants ordered by total spend descending
func (h *handler) GetTopMerchants(c *gin.Context) {
	params, err := ParseTopMerchantsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	rows, err := h.store.TopMerchants(c.Request.Context(), params.Limit)
	if err != nil {
		respondInternalError(c, err, "Failed to fetch top merchants")
		return
	}

	merchants := make([]dto.MerchantResponse, 0, len(rows))
	for _, row := range rows {
		merchants = append(merchants, dto.FromMerchantStatistic(row))
	}

	c.JSON(http.StatusOK, gin.H{"merchants": merchants})
}

// GetPaymentMethodStats returns the running totals per payment method
func (h *handler) GetPaymentMethodStats(c *gin.Context) {
	rows, err := h.store.PaymentMethodStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to fetch payment method stats")
		return
	}

	methods := make([]dto.PaymentMethodResponse, 0, len(rows))
	for _, row := range rows {
		methods = append(methods, dto.FromPaymentMethodStat(row))
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// GetHourlyTransactions lists the transactions recorded under one hour bucket
func (h *handler) GetHourlyTransactions(c *gin.Context) {
	bucket := c.Param("bucket")
	if _, err := time.Parse(domain.HourBucketLayout, bucket); err != nil {
		respondBadRequest(c, "Invalid hour bucket, expected YYYY-MM-DD-HH", err.Error())
		return
	}

	params, err := ParseHourlyQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	rows, err := h.store.HourlyTransactions(c.Request.Context(), bucket, params.Limit)
	if err != nil {
		respondInternalError(c, err, "Failed to fetch hourly transactions",
			zap.String("hour_bucket", bucket))
		return
	}

	transactions := make([]dto.HourlyTransactionResponse, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, dto.FromHourlyTransaction(row))
	}

	c.JSON(http.StatusOK, gin.H{
		"hour_bucket":  bucket,
		"transactions": transactions,
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
