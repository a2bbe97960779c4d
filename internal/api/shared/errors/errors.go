package errors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict"
	ErrCodeTransferFailed   ErrorCode = "transfer_failed"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return newError(ErrCodeBadRequest, message, details...)
}

func NewNotFoundError(message string, details ...string) *APIError {
	return newError(ErrCodeNotFound, message, details...)
}

func NewValidationError(details ...string) *APIError {
	return newError(ErrCodeValidationFailed, "Validation failed", details...)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(ErrCodeUnauthorized, message, details...)
}

func NewForbiddenError(message string, details ...string) *APIError {
	return newError(ErrCodeForbidden, message, details...)
}

func NewConflictError(message string, details ...string) *APIError {
	return newError(ErrCodeConflict, message, details...)
}

func NewTransferFailedError(message string, details ...string) *APIError {
	return newError(ErrCodeTransferFailed, message, details...)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(ErrCodeInternalError, message, details...)
}

func newError(code ErrorCode, message string, details ...string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// FromMarketError maps a market error to its HTTP status and API error.
// Internal errors never leak their message.
func FromMarketError(err error) (int, *APIError) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, NewValidationError(err.Error())
	case domain.KindAuthorization:
		return http.StatusForbidden, NewForbiddenError("Operation not permitted", err.Error())
	case domain.KindNotFound:
		return http.StatusNotFound, NewNotFoundError("Resource not found", err.Error())
	case domain.KindState:
		return http.StatusConflict, NewConflictError("Operation conflicts with current state", err.Error())
	case domain.KindTransfer:
		return http.StatusUnprocessableEntity, NewTransferFailedError("Settlement transfer failed", err.Error())
	default:
		return http.StatusInternalServerError, NewInternalError("Internal server error")
	}
}
