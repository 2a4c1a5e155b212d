package schema

import "time"

// TransactionByUser is the primary transaction feed, partitioned by user and
// clustered by transaction time descending. Backs the "recent transactions for
// a user" dashboard query.
type TransactionByUser struct {
	// UserID is the partition key
	UserID string `gorm:"column:user_id;primaryKey;type:text" json:"user_id"`
	// TransactionTime orders rows within a user's partition
	TransactionTime time.Time `gorm:"column:transaction_time;primaryKey;type:timestamptz;index:idx_txn_by_user_time,sort:desc" json:"transaction_time"`
	// TransactionID disambiguates transactions sharing a timestamp
	TransactionID string `gorm:"column:transaction_id;primaryKey;type:uuid" json:"transaction_id"`
	// AmountCents is the transaction amount in integer cents
	AmountCents int64 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	// Category is the merchant category of the transaction
	Category string `gorm:"column:category;type:text" json:"category"`
	// Merchant is the cleaned merchant name
	Merchant string `gorm:"column:merchant;type:text" json:"merchant"`
	// PaymentMethod is how the transaction was paid
	PaymentMethod string `gorm:"column:payment_method;type:text" json:"payment_method"`
	// IsRecurring marks subscription-style transactions
	IsRecurring bool `gorm:"column:is_recurring;not null;default:false" json:"is_recurring"`
}

// TableName specifies the table name for the TransactionByUser model
func (TransactionByUser) TableName() string {
	return "transactions_by_user"
}
