package errors

import (
	"errors"
	"fmt"
)

// DomainError carries a stable code surfaced to API clients.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so wrapped copies made by
// Wrap still compare equal to the sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of the sentinel carrying err as its cause.
func Wrap(sentinel *DomainError, err error) *DomainError {
	return &DomainError{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// WithMessage returns a copy of the sentinel with a more specific message.
func WithMessage(sentinel *DomainError, msg string) *DomainError {
	return &DomainError{Code: sentinel.Code, Message: msg}
}

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}
	ErrStoreFailure = &DomainError{
		Code:    "STORE_FAILURE",
		Message: "storage backend failed, try again",
	}
	ErrPermissionDenied = &DomainError{
		Code:    "PERMISSION_DENIED",
		Message: "permission denied",
	}
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "not found",
	}
	ErrReadOnly = &DomainError{
		Code:    "READ_ONLY",
		Message: "onboarding record is read-only",
	}
	ErrConfirmationRequired = &DomainError{
		Code:    "CONFIRMATION_REQUIRED",
		Message: "destructive operation requires explicit confirmation",
	}
	ErrUnavailable = &DomainError{
		Code:    "UNAVAILABLE",
		Message: "external service unavailable",
	}
)
