package errors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/feral-file/ff-tier-pass/internal/domain"
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
	ErrCodePaymentRequired  ErrorCode = "payment_required"
	ErrCodeTooManyRequests  ErrorCode = "too_many_requests"

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
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewConflictError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeConflict,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewPaymentRequiredError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodePaymentRequired,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewTooManyRequestsError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeTooManyRequests,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// FromRejection maps an operation rejection to its HTTP status and API error.
// The message carries the stable failure kind; ok is false for anything that is not a rejection.
func FromRejection(err error) (status int, apiErr *APIError, ok bool) {
	kind := domain.KindOf(err)
	message := string(kind)

	switch kind {
	case domain.KindNotAuthorized, domain.KindNotOwner:
		return http.StatusForbidden, NewForbiddenError(message, err.Error()), true
	case domain.KindNotFound:
		return http.StatusNotFound, NewNotFoundError(message, err.Error()), true
	case domain.KindInvalidAmount, domain.KindInvalidTier, domain.KindInvalidExpiry, domain.KindMetadataTooLong:
		return http.StatusUnprocessableEntity, &APIError{Code: ErrCodeValidationFailed, Message: message, Details: err.Error()}, true
	case domain.KindPaused, domain.KindTierNotActive, domain.KindAlreadyOwned, domain.KindLocked:
		return http.StatusConflict, NewConflictError(message, err.Error()), true
	case domain.KindInsufficientBalance:
		return http.StatusPaymentRequired, NewPaymentRequiredError(message, err.Error()), true
	default:
		return 0, nil, false
	}
}
