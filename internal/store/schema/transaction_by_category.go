package schema

import "time"

// TransactionByCategory duplicates the transaction feed under a compound
// (user, category) partition so category-scoped queries never scan the
// primary feed.
type TransactionByCategory struct {
	// UserID is the first partition key component
	UserID string `gorm:"column:user_id;primaryKey;type:text" json:"user_id"`
	// Category is the second partition key component
	Category string `gorm:"column:category;primaryKey;type:text" json:"category"`
	// TransactionTime orders rows within the partition
	TransactionTime time.Time `gorm:"column:transaction_time;primaryKey;type:timestamptz" json:"transaction_time"`
	// TransactionID disambiguates transactions sharing a timestamp
	TransactionID string `gorm:"column:transaction_id;primaryKey;type:uuid" json:"transaction_id"`
	// AmountCents is the transaction amount in integer cents
	AmountCents int64 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	// Merchant is the cleaned merchant name
	Merchant string `gorm:"column:merchant;type:text" json:"merchant"`
}

// TableName specifies the table name for the TransactionByCategory model
func (TransactionByCategory) TableName() string {
	return "transactions_by_category"
}
