// Package dto defines the response shapes of the dashboard REST API.
// Monetary amounts are stored as integer cents; responses carry both the raw
// cents and a dollar value for direct display.
package dto

import (
	"time"

	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/store/schema"
)

// TransactionResponse is one row of a transaction listing
type TransactionResponse struct {
	TransactionID   string    `json:"transaction_id"`
	UserID          string    `json:"user_id"`
	TransactionTime time.Time `json:"transaction_time"`
	AmountCents     int64     `json:"amount_cents"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	CategoryDisplay string    `json:"category_display"`
	Merchant        string    `json:"merchant"`
	PaymentMethod   string    `json:"payment_method,omitempty"`
	IsRecurring     bool      `json:"is_recurring"`
}

// CategorySpendingResponse is one row of a per-category spending summary
type CategorySpendingResponse struct {
	Category         string  `json:"category"`
	CategoryDisplay  string  `json:"category_display"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int64   `json:"transaction_count"`
}

// MerchantResponse is one row of the top merchants listing
type MerchantResponse struct {
	Merchant         string  `json:"merchant"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int64   `json:"transaction_count"`
}

// PaymentMethodResponse is one row of the payment method summary
type PaymentMethodResponse struct {
	PaymentMethod    string  `json:"payment_method"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int64   `json:"transaction_count"`
}

// HourlyTransactionResponse is one row of an hour bucket listing
type HourlyTransactionResponse struct {
	HourBucket      string    `json:"hour_bucket"`
	TransactionID   string    `json:"transaction_id"`
	UserID          string    `json:"user_id"`
	TransactionTime time.Time `json:"transaction_time"`
	AmountCents     int64     `json:"amount_cents"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Dollars converts integer cents into a dollar amount
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

// FromTransactionByUser converts a transactions_by_user row
func FromTransactionByUser(row schema.TransactionByUser) TransactionResponse {
	return TransactionResponse{
		TransactionID:   row.TransactionID,
		UserID:          row.UserID,
		TransactionTime: row.TransactionTime,
		AmountCents:     row.AmountCents,
		Amount:          Dollars(row.AmountCents),
		Category:        row.Category,
		CategoryDisplay: domain.DisplayCategory(row.Category),
		Merchant:        row.Merchant,
		PaymentMethod:   row.PaymentMethod,
		IsRecurring:     row.IsRecurring,
	}
}

// FromTransactionByCategory converts a transactions_by_category row
func FromTransactionByCategory(row schema.TransactionByCategory) TransactionResponse {
	return TransactionResponse{
		TransactionID:   row.TransactionID,
		UserID:          row.UserID,
		TransactionTime: row.TransactionTime,
		AmountCents:     row.AmountCents,
		Amount:          Dollars(row.AmountCents),
		Category:        row.Category,
		CategoryDisplay: domain.DisplayCategory(row.Category),
		Merchant:        row.Merchant,
	}
}

// FromSpendingByCategory converts a spending_by_category row
func FromSpendingByCategory(row schema.SpendingByCategory) CategorySpendingResponse {
	return CategorySpendingResponse{
		Category:         row.Category,
		CategoryDisplay:  domain.DisplayCategory(row.Category),
		TotalAmountCents: row.TotalAmountCents,
		TotalAmount:      Dollars(row.TotalAmountCents),
		TransactionCount: row.TransactionCount,
	}
}

// FromSpendingByUserCategory converts a spending_by_user_category row
func FromSpendingByUserCategory(row schema.SpendingByUserCategory) CategorySpendingResponse {
	return CategorySpendingResponse{
		Category:         row.Category,
		CategoryDisplay:  domain.DisplayCategory(row.Category),
		TotalAmountCents: row.TotalAmountCents,
		TotalAmount:      Dollars(row.TotalAmountCents),
		TransactionCount: row.TransactionCount,
	}
}

// FromMerchantStatistic converts a merchant_statistics row
func FromMerchantStatistic(row schema.MerchantStatistic) MerchantResponse {
	return MerchantResponse{
		Merchant:         row.Merchant,
		TotalAmountCents: row.TotalAmountCents,
		TotalAmount:      Dollars(row.TotalAmountCents),
		TransactionCount: row.TransactionCount,
	}
}

// FromPaymentMethodStat converts a payment_method_stats row
func FromPaymentMethodStat(row schema.PaymentMethodStat) PaymentMethodResponse {
	return PaymentMethodResponse{
		PaymentMethod:    row.PaymentMethod,
		TotalAmountCents: row.TotalAmountCents,
		TotalAmount:      Dollars(row.TotalAmountCents),
		TransactionCount: row.TransactionCount,
	}
}

// FromHourlyTransaction converts an hourly_transactions row
func FromHourlyTransaction(row schema.HourlyTransaction) HourlyTransactionResponse {
	return HourlyTransactionResponse{
		HourBucket:      row.HourBucket,
		TransactionID:   row.TransactionID,
		UserID:          row.UserID,
		TransactionTime: row.TransactionTime,
		AmountCents:     row.AmountCents,
		Amount:          Dollars(row.AmountCents),
		Category:        row.Category,
		ExpiresAt:       row.ExpiresAt,
	}
}
