package apperrors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so callers can compare against the sentinel values below
// without caring about message text.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeGatingUnmet      = "GATING_UNMET"
	ErrCodeAlreadyAwarded   = "ALREADY_AWARDED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeValidation       = "VALIDATION_ERROR"
)

// Sentinels for errors.Is checks across packages.
var (
	ErrNotFound         = New(ErrCodeNotFound, "record not found")
	ErrGatingUnmet      = New(ErrCodeGatingUnmet, "gating precondition not met")
	ErrAlreadyAwarded   = New(ErrCodeAlreadyAwarded, "award already presented")
	ErrStoreUnavailable = New(ErrCodeStoreUnavailable, "record store unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsGatingUnmet(err error) bool {
	return errors.Is(err, ErrGatingUnmet)
}
