package store

import (
	"context"
	"time"

	"github.com/paystream/payment-analytics/internal/store/schema"
)

// ViewStore defines the storage backend capability the write pipeline and the
// dashboard depend on. Writes come in exactly two shapes: last-write-wins
// upserts and atomic counter increments. Reads mirror the dashboard's query
// set, one method per denormalized view.
type ViewStore interface {
	// Upsert writes one row into an insert-kind view, overwriting on key
	// conflict (last-write-wins). A non-zero ttl stamps the row with an
	// expiry deadline enforced by the sweeper.
	Upsert(ctx context.Context, view string, key map[string]any, values map[string]any, ttl time.Duration) error

	// Increment atomically adds the given deltas to a counter-kind view row,
	// creating the row if absent. No read-before-write; re-applying the same
	// increment double-counts.
	Increment(ctx context.Context, view string, key map[string]any, deltas map[string]int64) error

	// DeleteExpired removes rows of a TTL-bearing view whose expiry deadline
	// is at or before now, returning the number of rows removed
	DeleteExpired(ctx context.Context, view string, now time.Time) (int64, error)

	// RecentTransactionsByUser returns a user's most recent transactions,
	// newest first
	RecentTransactionsByUser(ctx context.Context, userID string, limit int) ([]schema.TransactionByUser, error)

	// TransactionsByCategory returns a user's most recent transactions within
	// one category, newest first
	TransactionsByCategory(ctx context.Context, userID, category string, limit int) ([]schema.TransactionByCategory, error)

	// SpendingByCategory returns the running totals per category
	SpendingByCategory(ctx context.Context) ([]schema.SpendingByCategory, error)

	// SpendingByUserCategory returns one user's running totals per category
	SpendingByUserCategory(ctx context.Context, userID string) ([]schema.SpendingByUserCategory, error)

	// TopMerchants returns merchants ordered by total spend descending
	TopMerchants(ctx context.Context, limit int) ([]schema.MerchantStatistic, error)

	// PaymentMethodStats returns the running totals per payment method
	PaymentMethodStats(ctx context.Context) ([]schema.PaymentMethodStat, error)

	// HourlyTransactions returns the transactions recorded under one hour
	// bucket, newest first
	HourlyTransactions(ctx context.Context, bucket string, limit int) ([]schema.HourlyTransaction, error)

	// Migrate creates or updates the view tables
	Migrate(ctx context.Context) error
}
