package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ViewKind describes how a denormalized view is maintained
type ViewKind string

const (
	// ViewKindInsert overwrites the row on conflict (last-write-wins)
	ViewKindInsert ViewKind = "insert"
	// ViewKindCounter accumulates deltas atomically, never overwrites
	ViewKindCounter ViewKind = "counter"
)

// Event field names used by view key and value projections
const (
	FieldUserID          = "user_id"
	FieldTransactionID   = "transaction_id"
	FieldTransactionTime = "transaction_time"
	FieldAmountCents     = "amount_cents"
	FieldCategory        = "category"
	FieldMerchant        = "merchant"
	FieldDescription     = "description"
	FieldPaymentMethod   = "payment_method"
	FieldIsRecurring     = "is_recurring"
	FieldHourBucket      = "hour_bucket"
)

// Counter column names shared by all counter views
const (
	CounterTotalAmountCents = "total_amount_cents"
	CounterTransactionCount = "transaction_count"
)

// HourBucketLayout is the time layout for hourly partition keys, e.g. "2019-01-01-00"
const HourBucketLayout = "2006-01-02-15"

// TransactionEvent represents a single payment transaction as produced by the
// stream producer. This is the standard format published to NATS; it is
// immutable and consumed exactly once by the view router.
type TransactionEvent struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
	AmountCents   int64     `json:"amount_cents"` // decimal amounts carried as integer cents
	Category      string    `json:"category"`
	Merchant      string    `json:"merchant"`
	Description   string    `json:"description,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	IsRecurring   bool      `json:"is_recurring"`
}

// HourBucket returns the hour-granularity partition key for the event
// timestamp in UTC. Same timestamp always yields the same bucket.
func (e *TransactionEvent) HourBucket() string {
	return e.Timestamp.UTC().Format(HourBucketLayout)
}

// Field resolves a named event field to its projected value.
// The second return value reports whether the field is present and well-formed.
func (e *TransactionEvent) Field(name string) (any, bool) {
	switch name {
	case FieldUserID:
		return e.UserID, e.UserID != ""
	case FieldTransactionID:
		return e.ID.String(), e.ID != uuid.Nil
	case FieldTransactionTime:
		return e.Timestamp, !e.Timestamp.IsZero()
	case FieldAmountCents:
		return e.AmountCents, true
	case FieldCategory:
		return e.Category, e.Category != ""
	case FieldMerchant:
		return e.Merchant, e.Merchant != ""
	case FieldDescription:
		return e.Description, true
	case FieldPaymentMethod:
		return e.PaymentMethod, e.PaymentMethod != ""
	case FieldIsRecurring:
		return e.IsRecurring, true
	case FieldHourBucket:
		if e.Timestamp.IsZero() {
			return "", false
		}
		return e.HourBucket(), true
	default:
		return nil, false
	}
}

// CleanMerchant strips the dataset's synthetic "fraud_" prefix from merchant names
func CleanMerchant(merchant string) string {
	return strings.TrimPrefix(merchant, "fraud_")
}

// DisplayCategory converts a raw category like "misc_net" to "Misc Net"
func DisplayCategory(category string) string {
	if category == "" {
		return ""
	}
	words := strings.Split(category, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
