// Package apperrors defines the error values that cross the service boundary.
// Every failure a caller can trigger is an *ApiError with a kind and an HTTP
// status; anything else is treated as an internal error by the handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Authentication
	Authorization
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// StatusCode maps a kind to its response status. Conflict is answered with
// 400, matching what clients of the API already expect for duplicate emails.
func (k Kind) StatusCode() int {
	switch k {
	case Validation, Conflict:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type ApiError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *ApiError) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) error {
	return pkgerrors.WithStack(&ApiError{
		Kind:       kind,
		StatusCode: kind.StatusCode(),
		Message:    fmt.Sprintf(format, args...),
	})
}

func NewValidation(format string, args ...any) error {
	return newError(Validation, format, args...)
}

func NewAuthentication(format string, args ...any) error {
	return newError(Authentication, format, args...)
}

func NewAuthorization(format string, args ...any) error {
	return newError(Authorization, format, args...)
}

func NewNotFound(format string, args ...any) error {
	return newError(NotFound, format, args...)
}

func NewConflict(format string, args ...any) error {
	return newError(Conflict, format, args...)
}

// As returns the *ApiError inside err, if any.
func As(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Is reports whether err carries an *ApiError of the given kind.
func Is(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}

// Stack renders err with its captured stack trace.
func Stack(err error) string {
	return fmt.Sprintf("%+v", err)
}
