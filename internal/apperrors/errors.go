package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict indicates that a concurrent writer changed the resource first.
var ErrConflict = errors.New("conflicting update")

// AppError carries an HTTP status code alongside a client-safe message.
// The wrapped Err keeps errors.Is working against the sentinels above.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
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

// NewAppError creates an AppError with an explicit status code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError wrapping ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

// NewValidationError creates a 400 AppError wrapping ErrValidation.
func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

// NewBadRequestError creates a 400 AppError wrapping ErrValidation.
func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

// NewUnauthorizedError creates a 401 AppError wrapping ErrUnauthorized.
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

// NewConflictError creates a 409 AppError wrapping ErrConflict.
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrConflict)
}

// NewInternalServerError creates a 500 AppError.
func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

// NewGatewayTimeoutError creates a 504 AppError for upstream failures.
func NewGatewayTimeoutError(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message, nil)
}

// StatusCode maps an error to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
