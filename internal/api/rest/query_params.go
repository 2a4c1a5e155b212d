package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

const MAX_PAGE_SIZE = 500

// TransactionsQueryParams holds query parameters for GET /transactions/recent
type TransactionsQueryParams struct {
	UserID string `form:"user_id"`
	Limit  int    `form:"limit,default=30"`
}

// CategoryTransactionsQueryParams holds query parameters for GET /transactions/category
type CategoryTransactionsQueryParams struct {
	UserID   string `form:"user_id"`
	Category string `form:"category"`
	Limit    int    `form:"limit,default=30"`
}

// TopMerchantsQueryParams holds query parameters for GET /merchants/top
type TopMerchantsQueryParams struct {
	Limit int `form:"limit,default=8"`
}

// HourlyQueryParams holds query parameters for GET /hourly/:bucket
type HourlyQueryParams struct {
	Limit int `form:"limit,default=100"`
}

// ParseTransactionsQuery parses query parameters for GET /transactions/recent
func ParseTransactionsQuery(c *gin.Context) (*TransactionsQueryParams, error) {
	var params TransactionsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if params.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if err := checkLimit(params.Limit); err != nil {
		return nil, err
	}
	return &params, nil
}

// ParseCategoryTransactionsQuery parses query parameters for GET /transactions/category
func ParseCategoryTransactionsQuery(c *gin.Context) (*CategoryTransactionsQueryParams, error) {
	var params CategoryTransactionsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if params.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if params.Category == "" {
		return nil, fmt.Errorf("category is required")
	}
	if err := checkLimit(params.Limit); err != nil {
		return nil, err
	}
	return &params, nil
}

// ParseTopMerchantsQuery parses query parameters for GET /merchants/top
func ParseTopMerchantsQuery(c *gin.Context) (*TopMerchantsQueryParams, error) {
	var params TopMerchantsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := checkLimit(params.Limit); err != nil {
		return nil, err
	}
	return &params, nil
}

// ParseHourlyQuery parses query parameters for GET /hourly/:bucket
func ParseHourlyQuery(c *gin.Context) (*HourlyQueryParams, error) {
	var params HourlyQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := checkLimit(params.Limit); err != nil {
		return nil, err
	}
	return &params, nil
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if limit > MAX_PAGE_SIZE {
		return fmt.Errorf("limit must be at most %d", MAX_PAGE_SIZE)
	}
	return nil
}
