// Package errors defines structured error types for the API.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies an API failure to clients.
type ErrorCode string

const (
	// ErrValidationFailed is returned when input data fails validation
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrMissingField is returned when a required field is missing
	ErrMissingField ErrorCode = "MISSING_FIELD"

	// ErrSheetNotFound is returned when the workbook has no such sheet
	ErrSheetNotFound ErrorCode = "SHEET_NOT_FOUND"
	// ErrRecordNotFound is returned when no record satisfies the conditions
	ErrRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	// ErrConfiguration is returned when a sheet's header row cannot back a table
	ErrConfiguration ErrorCode = "CONFIGURATION"
	// ErrConflict is returned when the request clashes with existing data
	ErrConflict ErrorCode = "CONFLICT"

	// ErrStorageError is returned when reading or writing the workbook fails
	ErrStorageError ErrorCode = "STORAGE_ERROR"
	// ErrInternal is returned when an unexpected server error occurs
	ErrInternal ErrorCode = "INTERNAL_ERROR"
	// ErrNotImplemented is returned when the workbook cannot do what was asked
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	// ErrUnauthorized is returned when authentication is missing or invalid
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrRateLimited is returned when a client exceeds its request budget
	ErrRateLimited ErrorCode = "RATE_LIMITED"
	// ErrTooLarge is returned when the request body exceeds the limit
	ErrTooLarge ErrorCode = "REQUEST_TOO_LARGE"
)

// ErrorWithStatus is an error that includes an HTTP status code and error code.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
}

// APIError carries the status, code and details reported to the client.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{statusCode: statusCode, code: code, message: message}
}

// WithDetail adds a single detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap records the underlying error.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.statusCode }

// Code returns the error code.
func (e *APIError) Code() ErrorCode { return e.code }

// Details returns additional error details.
func (e *APIError) Details() map[string]any { return e.details }

// Unwrap returns the wrapped error if any.
func (e *APIError) Unwrap() error { return e.wrappedErr }

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrValidationFailed, message)
}

// MissingField creates a 400 Bad Request error for a missing field.
func MissingField(fieldName string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrMissingField, "Missing required field: "+fieldName).WithDetail("field", fieldName)
}

// SheetNotFound creates a 404 for a sheet.
func SheetNotFound(name string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrSheetNotFound, fmt.Sprintf("sheet %q not found", name)).WithDetail("sheet", name)
}

// RecordNotFound creates a 404 for a record lookup.
func RecordNotFound() *APIError {
	return NewAPIError(http.StatusNotFound, ErrRecordNotFound, "record not found")
}

// Unauthorized returns a 401 Unauthorized error.
func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, ErrUnauthorized, message)
}

// Internal returns a 500 Internal Server Error.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrInternal, message)
}

// InternalWithError creates a 500 error wrapping an underlying error.
func InternalWithError(message string, err error) *APIError {
	return Internal(message).Wrap(err)
}
