package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy. Per-record and per-request failures stay contained in the
// component that hit them; only ErrEmptyDataset and snapshot I/O errors are
// ever surfaced to an external caller.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotAdmitted     = errors.New("jurisdiction not admitted")
	ErrDuplicateParcel = errors.New("duplicate parcel id")
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrRetryExhausted  = errors.New("retry limit exhausted")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
