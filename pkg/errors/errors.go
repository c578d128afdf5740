package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a user-visible failure category.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrWorkerNotFound
	ErrServiceNotFound
	ErrWorkerUnavailable
	ErrInvalidSchedule
	ErrInvalidStatus
)

// AppError is an application error carrying a stable code alongside the
// wrapped cause. The cause is never serialized to callers.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// StatusCode maps the error category to an HTTP status. The error
// middleware uses this to build responses.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound, ErrWorkerNotFound, ErrServiceNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrInvalidSchedule:
		return http.StatusBadRequest
	case ErrInvalidStatus:
		return http.StatusUnprocessableEntity
	case ErrWorkerUnavailable:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(err error) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: "permission denied",
		Err:     err,
	}
}

// WorkerNotFound means a worker id was given but does not resolve to a
// user with the WORKER role.
func WorkerNotFound(err error) *AppError {
	return &AppError{
		Code:    ErrWorkerNotFound,
		Message: "worker not found",
		Err:     err,
	}
}

func ServiceNotFound(err error) *AppError {
	return &AppError{
		Code:    ErrServiceNotFound,
		Message: "service not found",
		Err:     err,
	}
}

// WorkerUnavailable means the requested time window conflicts with an
// existing booking. Callers are expected to pick another worker or time.
func WorkerUnavailable() *AppError {
	return &AppError{
		Code:    ErrWorkerUnavailable,
		Message: "worker is not available for the requested time slot",
	}
}

func InvalidSchedule(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidSchedule,
		Message: message,
	}
}

func InvalidStatus(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidStatus,
		Message: message,
	}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed. Errors
// without an AppError in their chain report ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given category.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
