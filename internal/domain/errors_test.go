package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name      string
		err       error
		transient bool
		permanent bool
	}{
		{
			name:      "transient backend error",
			err:       &TransientBackendError{Cause: base},
			transient: true,
		},
		{
			name:      "permanent backend error",
			err:       &PermanentBackendError{Cause: base},
			permanent: true,
		},
		{
			name:      "wrapped transient",
			err:       fmt.Errorf("increment failed: %w", &TransientBackendError{Cause: base}),
			transient: true,
		},
		{
			name:      "wrapped permanent",
			err:       fmt.Errorf("upsert failed: %w", &PermanentBackendError{Cause: base}),
			permanent: true,
		},
		{
			name: "plain error is neither",
			err:  base,
		},
		{
			name: "nil is neither",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
			assert.Equal(t, tt.permanent, IsPermanent(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")

	assert.ErrorIs(t, &TransientBackendError{Cause: base}, base)
	assert.ErrorIs(t, &PermanentBackendError{Cause: base}, base)
	assert.ErrorIs(t, &ValidationError{View: "transactions_by_user", Field: "user_id", Cause: base}, base)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{View: "spending_by_category", Field: "category"}
	assert.Contains(t, err.Error(), "spending_by_category")
	assert.Contains(t, err.Error(), "category")
}
