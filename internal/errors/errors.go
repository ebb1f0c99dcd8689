package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUnauthenticated indicates no valid session was presented.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeForbidden indicates a valid session with insufficient role or
	// missing tenant scope.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeRateLimited indicates the caller exceeded its request quota.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeProfileProvision indicates profile auto-creation could not
	// complete (e.g., missing email).
	ErrCodeProfileProvision ErrorCode = "profile_provision"
	// ErrCodeUpstreamUnavailable indicates a session or profile store call
	// failed.
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthenticated, Message: message}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message}
}

// Forbiddenf creates a new Forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// RateLimited creates a new RateLimited error.
func RateLimited(message string) *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: message}
}

// ProfileProvision creates a new ProfileProvision error.
func ProfileProvision(message string) *AppError {
	return &AppError{Code: ErrCodeProfileProvision, Message: message}
}

// UpstreamUnavailable wraps a failed upstream call (session or profile store).
func UpstreamUnavailable(err error, message string) *AppError {
	return &AppError{Code: ErrCodeUpstreamUnavailable, Message: message, Cause: err}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// IsRateLimited checks if an error is a RateLimited error.
func IsRateLimited(err error) bool {
	return isCode(err, ErrCodeRateLimited)
}

// IsProfileProvision checks if an error is a ProfileProvision error.
func IsProfileProvision(err error) bool {
	return isCode(err, ErrCodeProfileProvision)
}

// IsUpstreamUnavailable checks if an error is an UpstreamUnavailable error.
func IsUpstreamUnavailable(err error) bool {
	return isCode(err, ErrCodeUpstreamUnavailable)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// CodeOf returns the error code carried by err, or ErrCodeInternal when err
// carries none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
