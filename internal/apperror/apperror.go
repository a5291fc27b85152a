package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream failure")
	ErrStore      = errors.New("store failure")
)

type AppError struct {
	Err     error  // sentinel this error belongs to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver / transport error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause, so
// errors.Is(err, ErrStore) and errors.As(err, &pgErr) both work.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// StoreFailure wraps a persistence error. op names the operation that
// failed, e.g. "inserting favorites entry".
func StoreFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: op,
		Cause:   cause,
	}
}

// UpstreamFailure wraps a transport-level error talking to the metadata API.
// HTTP handlers map this to 502 Bad Gateway.
func UpstreamFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: op,
		Cause:   cause,
	}
}

// Code returns the stable, client-safe taxonomy code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUpstream):
		return "upstream_failure"
	case errors.Is(err, ErrStore):
		return "store_failure"
	default:
		return "internal_error"
	}
}
