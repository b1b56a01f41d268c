// Package apperr defines the typed errors returned by handlers and the echo
// error handler that renders them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	TypeBadRequest       ErrorType = "bad_request"
	TypeNotFound         ErrorType = "not_found"
	TypeMethodNotAllowed ErrorType = "method_not_allowed"
	TypeTooLarge         ErrorType = "payload_too_large"
	TypeInternal         ErrorType = "internal"
)

// Codes carried in the error envelope.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeEmptyBody        = "EMPTY_BODY"
	CodeMalformedJSON    = "MALFORMED_JSON"
	CodeInvalidBody      = "INVALID_BODY"
	CodeInvalidMessage   = "INVALID_MESSAGE"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeInternal         = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType
	Message    string
	Code       string
	StatusCode int
	Details    map[string]string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails returns e with the given key/value added to its details.
func (e *AppError) WithDetails(key, value string) *AppError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// BadRequest builds a 400 error with the given code.
func BadRequest(code, message string, cause error) *AppError {
	return &AppError{
		Type:       TypeBadRequest,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

func NotFound(message string) *AppError {
	return &AppError{
		Type:       TypeNotFound,
		Message:    message,
		Code:       CodeNotFound,
		StatusCode: http.StatusNotFound,
	}
}

func MethodNotAllowed(message string) *AppError {
	return &AppError{
		Type:       TypeMethodNotAllowed,
		Message:    message,
		Code:       CodeMethodNotAllowed,
		StatusCode: http.StatusMethodNotAllowed,
	}
}

func TooLarge(message string) *AppError {
	return &AppError{
		Type:       TypeTooLarge,
		Message:    message,
		Code:       CodeTooLarge,
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

// Internal wraps cause; the cause is logged but never sent to the client.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Type:       TypeInternal,
		Message:    message,
		Code:       CodeInternal,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
