package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validEvent() *TransactionEvent {
	return &TransactionEvent{
		ID:            uuid.MustParse("4f5e9d6a-0b1c-4d2e-8f3a-5b6c7d8e9f0a"),
		UserID:        "User_1",
		Timestamp:     time.Date(2019, 1, 1, 0, 0, 18, 0, time.UTC),
		AmountCents:   497,
		Category:      "misc_net",
		Merchant:      "Kirlin and Sons",
		Description:   "online purchase",
		PaymentMethod: "debit_card",
		IsRecurring:   false,
	}
}

func TestTransactionEventField(t *testing.T) {
	event := validEvent()

	tests := []struct {
		name     string
		field    string
		expected any
		ok       bool
	}{
		{
			name:     "user id",
			field:    FieldUserID,
			expected: "User_1",
			ok:       true,
		},
		{
			name:     "transaction id",
			field:    FieldTransactionID,
			expected: "4f5e9d6a-0b1c-4d2e-8f3a-5b6c7d8e9f0a",
			ok:       true,
		},
		{
			name:     "transaction time",
			field:    FieldTransactionTime,
			expected: event.Timestamp,
			ok:       true,
		},
		{
			name:     "amount cents",
			field:    FieldAmountCents,
			expected: int64(497),
			ok:       true,
		},
		{
			name:     "category",
			field:    FieldCategory,
			expected: "misc_net",
			ok:       true,
		},
		{
			name:     "merchant",
			field:    FieldMerchant,
			expected: "Kirlin and Sons",
			ok:       true,
		},
		{
			name:     "payment method",
			field:    FieldPaymentMethod,
			expected: "debit_card",
			ok:       true,
		},
		{
			name:     "is recurring",
			field:    FieldIsRecurring,
			expected: false,
			ok:       true,
		},
		{
			name:     "hour bucket",
			field:    FieldHourBucket,
			expected: "2019-01-01-00",
			ok:       true,
		},
		{
			name:  "unknown field",
			field: "no_such_field",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := event.Field(tt.field)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}

func TestTransactionEventFieldMissing(t *testing.T) {
	tests := []struct {
		name  string
		event *TransactionEvent
		field string
	}{
		{
			name: "empty user id",
			event: func() *TransactionEvent {
				e := validEvent()
				e.UserID = ""
				return e
			}(),
			field: FieldUserID,
		},
		{
			name: "nil transaction id",
			event: func() *TransactionEvent {
				e := validEvent()
				e.ID = uuid.Nil
				return e
			}(),
			field: FieldTransactionID,
		},
		{
			name: "zero timestamp",
			event: func() *TransactionEvent {
				e := validEvent()
				e.Timestamp = time.Time{}
				return e
			}(),
			field: FieldTransactionTime,
		},
		{
			name: "zero timestamp drops hour bucket",
			event: func() *TransactionEvent {
				e := validEvent()
				e.Timestamp = time.Time{}
				return e
			}(),
			field: FieldHourBucket,
		},
		{
			name: "empty category",
			event: func() *TransactionEvent {
				e := validEvent()
				e.Category = ""
				return e
			}(),
			field: FieldCategory,
		},
		{
			name: "empty payment method",
			event: func() *TransactionEvent {
				e := validEvent()
				e.PaymentMethod = ""
				return e
			}(),
			field: FieldPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.event.Field(tt.field)
			assert.False(t, ok)
		})
	}
}

func TestHourBucket(t *testing.T) {
	tests := []struct {
		name      string
		timestamp time.Time
		expected  string
	}{
		{
			name:      "midnight utc",
			timestamp: time.Date(2019, 1, 1, 0, 0, 18, 0, time.UTC),
			expected:  "2019-01-01-00",
		},
		{
			name:      "afternoon utc",
			timestamp: time.Date(2026, 8, 24, 15, 59, 59, 0, time.UTC),
			expected:  "2026-08-24-15",
		},
		{
			name:      "non-utc timestamp normalized to utc",
			timestamp: time.Date(2019, 1, 1, 1, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected:  "2019-01-01-00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &TransactionEvent{Timestamp: tt.timestamp}
			assert.Equal(t, tt.expected, event.HourBucket())
		})
	}
}

func TestHourBucketStable(t *testing.T) {
	event := validEvent()
	first := event.HourBucket()
	for range 10 {
		assert.Equal(t, first, event.HourBucket())
	}
}

func TestCleanMerchant(t *testing.T) {
	assert.Equal(t, "Kirlin and Sons", CleanMerchant("fraud_Kirlin and Sons"))
	assert.Equal(t, "Kirlin and Sons", CleanMerchant("Kirlin and Sons"))
	assert.Equal(t, "", CleanMerchant(""))
}

func TestDisplayCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected string
	}{
		{
			name:     "two words",
			category: "misc_net",
			expected: "Misc Net",
		},
		{
			name:     "single word",
			category: "entertainment",
			expected: "Entertainment",
		},
		{
			name:     "three words",
			category: "gas_transport_other",
			expected: "Gas Transport Other",
		},
		{
			name:     "empty",
			category: "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayCategory(tt.category))
		})
	}
}
