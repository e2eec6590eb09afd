package appError

import (
	"errors"
	"net/http"
)

// Classification is the stable machine-readable error type string that goes
// out on the wire in every error response.
type Classification string

const (
	InvalidRequest Classification = "invalid_request"
	NotFound       Classification = "not_found"
	Validation     Classification = "validation_error"
	Dependency     Classification = "dependency_error"
	RateLimit      Classification = "rate_limit_error"
	Internal       Classification = "server_error"
)

func (c Classification) HTTPStatus() int {
	switch c {
	case InvalidRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusUnprocessableEntity
	case Dependency:
		return http.StatusServiceUnavailable
	case RateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError names one violated field. Validation responses carry one entry
// per violated constraint, not just the first one found.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind      Classification
	Message   string
	Details   map[string]any
	Locations []FieldError
	cause     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Classification, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Classification, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func (e *Error) WithLocations(locations ...FieldError) *Error {
	e.Locations = append(e.Locations, locations...)
	return e
}

// From normalizes any error into an *Error. Unknown errors become Internal
// with the original message preserved in the details.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(Internal, "Unexpected error: "+err.Error(), err).
		WithDetails(map[string]any{"error": err.Error()})
}
