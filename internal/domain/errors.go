package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Callers match with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrQuotaExceeded      = errors.New("guest usage limit reached")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateGuestID   = errors.New("guest id already exists")
	ErrRewriteFailed      = errors.New("rewrite failed")
)

// ValidationError names the offending field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// QuotaError reports an exhausted guest allowance. It matches ErrQuotaExceeded.
type QuotaError struct {
	GuestID string
	Usage   UsageView
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("guest %s used %d of %d: %s", e.GuestID, e.Usage.UsageCount, e.Usage.MaxUsage, ErrQuotaExceeded)
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}
