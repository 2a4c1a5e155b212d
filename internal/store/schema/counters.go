package schema

// Counter views hold running totals maintained by atomic increment; the write
// path never reads a counter row before updating it. Totals are integer cents.

// SpendingByCategory aggregates spend per category
type SpendingByCategory struct {
	Category         string `gorm:"column:category;primaryKey;type:text" json:"category"`
	TotalAmountCents int64  `gorm:"column:total_amount_cents;not null;default:0" json:"total_amount_cents"`
	TransactionCount int64  `gorm:"column:transaction_count;not null;default:0" json:"transaction_count"`
}

// TableName specifies the table name for the SpendingByCategory model
func (SpendingByCategory) TableName() string {
	return "spending_by_category"
}

// SpendingByUserCategory aggregates spend per (user, category) pair
type SpendingByUserCategory struct {
	UserID           string `gorm:"column:user_id;primaryKey;type:text" json:"user_id"`
	Category         string `gorm:"column:category;primaryKey;type:text" json:"category"`
	TotalAmountCents int64  `gorm:"column:total_amount_cents;not null;default:0" json:"total_amount_cents"`
	TransactionCount int64  `gorm:"column:transaction_count;not null;default:0" json:"transaction_count"`
}

// TableName specifies the table name for the SpendingByUserCategory model
func (SpendingByUserCategory) TableName() string {
	return "spending_by_user_category"
}

// MerchantStatistic aggregates spend per merchant
type MerchantStatistic struct {
	Merchant         string `gorm:"column:merchant;primaryKey;type:text" json:"merchant"`
	TotalAmountCents int64  `gorm:"column:total_amount_cents;not null;default:0" json:"total_amount_cents"`
	TransactionCount int64  `gorm:"column:transaction_count;not null;default:0" json:"transaction_count"`
}

// TableName specifies the table name for the MerchantStatistic model
func (MerchantStatistic) TableName() string {
	return "merchant_statistics"
}

// PaymentMethodStat aggregates spend per payment method
type PaymentMethodStat struct {
	PaymentMethod    string `gorm:"column:payment_method;primaryKey;type:text" json:"payment_method"`
	TotalAmountCents int64  `gorm:"column:total_amount_cents;not null;default:0" json:"total_amount_cents"`
	TransactionCount int64  `gorm:"column:transaction_count;not null;default:0" json:"transaction_count"`
}

// TableName specifies the table name for the PaymentMethodStat model
func (PaymentMethodStat) TableName() string {
	return "payment_method_stats"
}
