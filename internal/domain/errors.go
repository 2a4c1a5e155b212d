package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrViewNotFound is returned when a write targets an unregistered view
	ErrViewNotFound = errors.New("view not found")

	// ErrSourceExhausted is returned when the event source has no more rows to replay
	ErrSourceExhausted = errors.New("event source exhausted")
)

// ValidationError reports a missing or malformed event field that prevents one
// view's key projection. It drops that view's intent only; sibling views still route.
type ValidationError struct {
	View  string
	Field string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation failed for view %s: field %s: %v", e.View, e.Field, e.Cause)
	}
	return fmt.Sprintf("validation failed for view %s: field %s is missing or malformed", e.View, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// TransientBackendError wraps a backend failure that is expected to clear on
// retry (connection loss, timeout). The dispatcher retries these with backoff.
type TransientBackendError struct {
	Cause error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("transient backend error: %v", e.Cause)
}

func (e *TransientBackendError) Unwrap() error { return e.Cause }

// PermanentBackendError wraps a backend failure that retrying cannot fix
// (constraint violation, unknown view, encoding failure). Logged and skipped.
type PermanentBackendError struct {
	Cause error
}

func (e *PermanentBackendError) Error() string {
	return fmt.Sprintf("permanent backend error: %v", e.Cause)
}

func (e *PermanentBackendError) Unwrap() error { return e.Cause }

// IsTransient reports whether err is (or wraps) a TransientBackendError
func IsTransient(err error) bool {
	var t *TransientBackendError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is (or wraps) a PermanentBackendError
func IsPermanent(err error) bool {
	var p *PermanentBackendError
	return errors.As(err, &p)
}
