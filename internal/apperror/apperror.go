// Package apperror defines the error taxonomy shared by the client and the host.
//
// Callers classify with errors.Is against the sentinels; the host maps them to
// HTTP status codes and the client maps HTTP status codes back to them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrPermissionDenied = errors.New("permission denied")
	ErrWriteFailed      = errors.New("write failed")
	ErrUsage            = errors.New("usage error")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying transport or decoding error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// PermissionDenied marks the whole client session as unauthorized.
// It is fatal: the client stops fetching and shows a blocked screen.
func PermissionDenied(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrPermissionDenied,
		Message: message,
		Cause:   cause,
	}
}

// WriteFailed reports a create, update, delete or upload that did not succeed.
// op names the operation, e.g. "create snippet".
func WriteFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrWriteFailed,
		Message: op + " failed",
		Cause:   cause,
	}
}

// Usage rejects a call that is invalid in the current state. No I/O has happened.
func Usage(message string) *AppError {
	return &AppError{
		Err:     ErrUsage,
		Message: message,
	}
}

// UserMessage returns the text to show a user for err.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
