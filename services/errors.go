package services

import (
	"errors"
	"net/http"

	"propmarket-go/repositories"
	"propmarket-go/utils"
)

// ErrInvalidOrExpiredCode covers a wrong, expired, used or exhausted code.
// Callers cannot tell these apart.
var ErrInvalidOrExpiredCode = &utils.AppError{
	StatusCode: http.StatusUnauthorized,
	Code:       utils.ErrCodeInvalidCode,
	Message:    "Invalid or expired code",
}

var ErrAccountSuspended = &utils.AppError{
	StatusCode: http.StatusForbidden,
	Code:       utils.ErrCodeAccountSuspended,
	Message:    "Account is suspended",
}

var ErrStorageUnavailable = &utils.AppError{
	StatusCode: http.StatusServiceUnavailable,
	Code:       utils.ErrCodeDependencyUnavailable,
	Message:    "Document storage is not configured",
}

var ErrNotifierUnavailable = &utils.AppError{
	StatusCode: http.StatusServiceUnavailable,
	Code:       utils.ErrCodeDependencyUnavailable,
	Message:    "Email delivery is not configured",
}

func newDeliveryError(err error) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       utils.ErrCodeDeliveryFailed,
		Message:    "Failed to send login code",
		Err:        err,
	}
}

// notFoundOr maps a repository miss to a 404 with message and anything else
// to an internal error.
func notFoundOr(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return utils.NewNotFoundError(message)
	}
	return utils.NewInternalError("Database error", err)
}

func validationError(err error) error {
	return utils.NewFieldValidationError(err)
}
