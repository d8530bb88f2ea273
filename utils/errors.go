package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the "code" field of error responses.
const (
	ErrCodeValidation            = "validation_error"
	ErrCodeUnauthorized          = "unauthorized"
	ErrCodeInvalidCode           = "invalid_code"
	ErrCodeForbidden             = "forbidden"
	ErrCodeAccountSuspended      = "account_suspended"
	ErrCodeNotFound              = "not_found"
	ErrCodePreconditionFailed    = "precondition_failed"
	ErrCodeConflict              = "conflict"
	ErrCodeDependencyUnavailable = "dependency_unavailable"
	ErrCodeDeliveryFailed        = "delivery_failed"
	ErrCodeRateLimited           = "rate_limited"
	ErrCodeInternal              = "internal_error"
)

// AppError carries an HTTP status and a display-safe message from the
// service layer to the handlers. Err is logged, never returned to clients.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	// Details is sent to the client alongside Message, e.g. per-field
	// validation messages.
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: message}
}

// NewFieldValidationError reports every failing field of a validator error,
// using the first one as the message.
func NewFieldValidationError(err error) *AppError {
	appErr := &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    FirstValidationMessage(err),
	}
	if fields := FormatValidationError(err); len(fields) > 0 {
		appErr.Details = fields
	}
	return appErr
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{StatusCode: http.StatusForbidden, Code: ErrCodeForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

func NewPreconditionFailedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodePreconditionFailed, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeConflict, Message: message}
}

func NewDependencyUnavailableError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusServiceUnavailable, Code: ErrCodeDependencyUnavailable, Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Code: ErrCodeInternal, Message: message, Err: err}
}

// IsAppErrorCode reports whether err is an AppError with the given code.
func IsAppErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
