// Package apperr is the error taxonomy shared by every operation. The HTTP
// layer maps Kind to a status code; nothing below it knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Permission
	Authentication
	Conflict
	InvalidTransition
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Permission:
		return "permission"
	case Authentication:
		return "authentication"
	case Conflict:
		return "conflict"
	case InvalidTransition:
		return "invalid_transition"
	}
	return "internal"
}

// Sentinels for errors.Is.
var (
	ErrValidation        = &Error{Kind: Validation, Message: "validation failed"}
	ErrNotFound          = &Error{Kind: NotFound, Message: "not found"}
	ErrPermission        = &Error{Kind: Permission, Message: "permission denied"}
	ErrAuthentication    = &Error{Kind: Authentication, Message: "authentication required"}
	ErrConflict          = &Error{Kind: Conflict, Message: "conflict"}
	ErrInvalidTransition = &Error{Kind: InvalidTransition, Message: "invalid status transition"}
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works
// regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error { return newf(Validation, format, args...) }
func NotFoundf(format string, args ...any) *Error   { return newf(NotFound, format, args...) }
func Permissionf(format string, args ...any) *Error { return newf(Permission, format, args...) }
func Conflictf(format string, args ...any) *Error   { return newf(Conflict, format, args...) }

func Authenticationf(format string, args ...any) *Error {
	return newf(Authentication, format, args...)
}

func InvalidTransitionf(format string, args ...any) *Error {
	return newf(InvalidTransition, format, args...)
}

// Field builds a validation error for a single request field.
func Field(field, msg string) *Error {
	return &Error{
		Kind:    Validation,
		Message: field + ": " + msg,
		Fields:  map[string]string{field: msg},
	}
}

// Wrap attaches err as the cause of an internal error.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Message: msg, Err: err}
}

// KindOf returns Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func HTTPStatus(k Kind) int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Permission:
		return http.StatusForbidden
	case Authentication:
		return http.StatusUnauthorized
	case Conflict, InvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
