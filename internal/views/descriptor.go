package views

import (
	"time"

	"github.com/paystream/payment-analytics/internal/domain"
)

// Descriptor is the static, compile-time-known definition of one denormalized
// projection. The union of partition and clustering key fields uniquely
// identifies a row within the view.
type Descriptor struct {
	// Name is the view's table name
	Name string
	// PartitionKeyFields determine storage placement of rows
	PartitionKeyFields []string
	// ClusteringKeyFields determine sort order within a partition (ordered)
	ClusteringKeyFields []string
	// ValueFields are the non-key columns projected from the event (insert views only)
	ValueFields []string
	// Kind selects the write semantics: overwrite or atomic accumulate
	Kind domain.ViewKind
	// TTL is the row expiration window; zero means rows never expire
	TTL time.Duration
}

// KeyFields returns partition key fields followed by clustering key fields
func (d Descriptor) KeyFields() []string {
	fields := make([]string, 0, len(d.PartitionKeyFields)+len(d.ClusteringKeyFields))
	fields = append(fields, d.PartitionKeyFields...)
	fields = append(fields, d.ClusteringKeyFields...)
	return fields
}

// WriteIntent is a fully-resolved key and value payload ready for dispatch.
// It is derived from one (event, descriptor) pair and lives for a single
// dispatch cycle; intents are never persisted.
type WriteIntent struct {
	View Descriptor
	// Key maps key field name to resolved value, covering partition and clustering fields
	Key map[string]any
	// Values maps value field name to resolved value (insert views)
	Values map[string]any
	// CounterDeltas maps counter column to its increment (counter views).
	// Always a delta contribution of the event, never an absolute.
	CounterDeltas map[string]int64
	// TTL carries the view's expiration window for TTL-bearing inserts
	TTL time.Duration
}

// SkippedView records one view dropped from an event's fan-out with the
// validation error that caused it
type SkippedView struct {
	View string
	Err  *domain.ValidationError
}

// Registry returns the static set of view descriptors, one per dashboard query
// pattern. A transaction event fans out to every view in this list whose
// required key fields are present.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:                ViewTransactionsByUser,
			PartitionKeyFields:  []string{domain.FieldUserID},
			ClusteringKeyFields: []string{domain.FieldTransactionTime, domain.FieldTransactionID},
			ValueFields: []string{
				domain.FieldAmountCents, domain.FieldCategory, domain.FieldMerchant,
				domain.FieldPaymentMethod, domain.FieldIsRecurring,
			},
			Kind: domain.ViewKindInsert,
		},
		{
			Name:                ViewTransactionsByCategory,
			PartitionKeyFields:  []string{domain.FieldUserID, domain.FieldCategory},
			ClusteringKeyFields: []string{domain.FieldTransactionTime, domain.FieldTransactionID},
			ValueFields:         []string{domain.FieldAmountCents, domain.FieldMerchant},
			Kind:                domain.ViewKindInsert,
		},
		{
			Name:                ViewHourlyTransactions,
			PartitionKeyFields:  []string{domain.FieldHourBucket},
			ClusteringKeyFields: []string{domain.FieldTransactionTime, domain.FieldTransactionID},
			ValueFields:         []string{domain.FieldUserID, domain.FieldAmountCents, domain.FieldCategory},
			Kind:                domain.ViewKindInsert,
			TTL:                 HourlyTTL,
		},
		{
			Name:               ViewSpendingByCategory,
			PartitionKeyFields: []string{domain.FieldCategory},
			Kind:               domain.ViewKindCounter,
		},
		{
			Name:               ViewSpendingByUserCategory,
			PartitionKeyFields: []string{domain.FieldUserID, domain.FieldCategory},
			Kind:               domain.ViewKindCounter,
		},
		{
			Name:               ViewMerchantStatistics,
			PartitionKeyFields: []string{domain.FieldMerchant},
			Kind:               domain.ViewKindCounter,
		},
		{
			Name:               ViewPaymentMethodStats,
			PartitionKeyFields: []string{domain.FieldPaymentMethod},
			Kind:               domain.ViewKindCounter,
		},
	}
}

// View table names
const (
	ViewTransactionsByUser     = "transactions_by_user"
	ViewTransactionsByCategory = "transactions_by_category"
	ViewHourlyTransactions     = "hourly_transactions"
	ViewSpendingByCategory     = "spending_by_category"
	ViewSpendingByUserCategory = "spending_by_user_category"
	ViewMerchantStatistics     = "merchant_statistics"
	ViewPaymentMethodStats     = "payment_method_stats"
)

// HourlyTTL is the retention window for the hourly time-series view (7 days)
const HourlyTTL = 604800 * time.Second
