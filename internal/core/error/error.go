package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a Redis key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// UpstreamErrorMessage describes failures talking to the telephony provider.
	UpstreamErrorMessage = "telephony provider request failed"
	// UpstreamAuthMessage is used when the provider rejects our credentials.
	UpstreamAuthMessage = "telephony provider rejected credentials"
	// NotFoundMessage is the generic not found message.
	NotFoundMessage = "not found"
	// BadRequestMessage is the generic validation failure message.
	BadRequestMessage = "bad request"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NotFound wraps err as a 404 with a caller supplied message.
func NotFound(err error, message string) *AppError {
	if message == "" {
		message = NotFoundMessage
	}
	return New(err, http.StatusNotFound, message)
}

// BadRequest wraps err as a 400. The message of err is safe to show.
func BadRequest(err error) *AppError {
	msg := BadRequestMessage
	if err != nil {
		msg = err.Error()
	}
	return New(err, http.StatusBadRequest, msg)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// StatusOf resolves the HTTP status and safe message for any error.
// Errors that are not AppErrors map to 500 with SystemErrorMessage.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return http.StatusInternalServerError, SystemErrorMessage
}
