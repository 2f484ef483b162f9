// Package errors defines the application error codes shared by the login
// service and its transports.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates credentials were not recognized.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInvalidToken indicates a session token did not resolve.
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeUnavailable indicates the directory or token store could not be reached.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError carries a code and a user-safe message. Cause is for logs only.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

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

func newError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError { return newError(ErrCodeUnauthorized, message) }

// InvalidToken creates a new InvalidToken error.
func InvalidToken(message string) *AppError { return newError(ErrCodeInvalidToken, message) }

// Unavailable creates a new Unavailable error.
func Unavailable(message string) *AppError { return newError(ErrCodeUnavailable, message) }

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newError(ErrCodeInternal, message) }

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// GetCode returns the code of the outermost AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return code != "" && GetCode(err) == code
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return IsCode(err, ErrCodeInternal) }

// IsUnavailable checks if an error is an Unavailable error.
func IsUnavailable(err error) bool { return IsCode(err, ErrCodeUnavailable) }
