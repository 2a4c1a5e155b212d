package schema

import "time"

// HourlyTransaction is the time-series view, partitioned by an hour-granularity
// bucket key. Rows carry an expiry deadline and are removed by the sweeper once
// it passes; the write path never reads them back after expiry.
type HourlyTransaction struct {
	// HourBucket is the partition key, e.g. "2019-01-01-00" (UTC)
	HourBucket string `gorm:"column:hour_bucket;primaryKey;type:text" json:"hour_bucket"`
	// TransactionTime orders rows within the bucket
	TransactionTime time.Time `gorm:"column:transaction_time;primaryKey;type:timestamptz" json:"transaction_time"`
	// TransactionID disambiguates transactions sharing a timestamp
	TransactionID string `gorm:"column:transaction_id;primaryKey;type:uuid" json:"transaction_id"`
	// UserID identifies the transacting user
	UserID string `gorm:"column:user_id;type:text" json:"user_id"`
	// AmountCents is the transaction amount in integer cents
	AmountCents int64 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	// Category is the merchant category of the transaction
	Category string `gorm:"column:category;type:text" json:"category"`
	// ExpiresAt is the TTL deadline enforced by the sweeper
	ExpiresAt time.Time `gorm:"column:expires_at;not null;type:timestamptz;index:idx_hourly_expires_at" json:"expires_at"`
}

// TableName specifies the table name for the HourlyTransaction model
func (HourlyTransaction) TableName() string {
	return "hourly_transactions"
}
