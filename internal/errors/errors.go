package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeLookupNotFound indicates a named report, view, or question does not exist
	// (or the name is ambiguous) on the inventory platform.
	ErrCodeLookupNotFound ErrorCode = "lookup_not_found"
	// ErrCodeTransport indicates a network or connection problem talking to a remote service.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeParse indicates a malformed or shape-inconsistent response.
	ErrCodeParse ErrorCode = "parse"
	// ErrCodeUnsupportedJobType indicates an unknown source or destination kind.
	ErrCodeUnsupportedJobType ErrorCode = "unsupported_job_type"
	// ErrCodeExport indicates serialization of a result failed.
	ErrCodeExport ErrorCode = "export"
	// ErrCodeDelivery indicates a destination rejected or failed to accept a payload.
	ErrCodeDelivery ErrorCode = "delivery"
	// ErrCodeConfigInvalid indicates a job or process configuration value is invalid.
	ErrCodeConfigInvalid ErrorCode = "config_invalid"
	// ErrCodeStorage indicates the job store could not be read or written.
	ErrCodeStorage ErrorCode = "storage"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "internal"
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
	// Field is the job field that caused the error (optional, for config errors)
	Field string
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

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with the given code and a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a LookupNotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return Newf(ErrCodeLookupNotFound, format, args...)
}

// Parsef creates a Parse error with formatted message.
func Parsef(format string, args ...any) *AppError {
	return Newf(ErrCodeParse, format, args...)
}

// Unsupportedf creates an UnsupportedJobType error with formatted message.
func Unsupportedf(format string, args ...any) *AppError {
	return Newf(ErrCodeUnsupportedJobType, format, args...)
}

// ConfigField creates a ConfigInvalid error for a specific job field.
func ConfigField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Field:   field,
	}
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

// IsLookupNotFound checks if an error is a LookupNotFound error.
func IsLookupNotFound(err error) bool {
	return isCode(err, ErrCodeLookupNotFound)
}

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsParse checks if an error is a Parse error.
func IsParse(err error) bool {
	return isCode(err, ErrCodeParse)
}

// IsUnsupportedJobType checks if an error is an UnsupportedJobType error.
func IsUnsupportedJobType(err error) bool {
	return isCode(err, ErrCodeUnsupportedJobType)
}

// IsExport checks if an error is an Export error.
func IsExport(err error) bool {
	return isCode(err, ErrCodeExport)
}

// IsDelivery checks if an error is a Delivery error.
func IsDelivery(err error) bool {
	return isCode(err, ErrCodeDelivery)
}

// IsConfigInvalid checks if an error is a ConfigInvalid error.
func IsConfigInvalid(err error) bool {
	return isCode(err, ErrCodeConfigInvalid)
}

// IsStorage checks if an error is a Storage error.
func IsStorage(err error) bool {
	return isCode(err, ErrCodeStorage)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
// The outermost AppError in the chain wins.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
