package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so API handlers can translate it to an HTTP
// status and callers can branch on it without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindConflict
	KindInvalidStatusTransition
	KindInvalidHierarchy
	KindCircularHierarchy
)

// Error is the error type returned by every service operation that fails a
// domain rule. Message is safe to return to API clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidStatusTransition(format string, args ...any) *Error {
	return New(KindInvalidStatusTransition, format, args...)
}

func InvalidHierarchy(format string, args ...any) *Error {
	return New(KindInvalidHierarchy, format, args...)
}

func CircularHierarchy(format string, args ...any) *Error {
	return New(KindCircularHierarchy, format, args...)
}

// KindOf returns the Kind of err, or KindUnknown for errors that did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Code returns the stable machine-readable code for the error, used in API
// response bodies alongside the message.
func Code(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidStatusTransition:
		return "INVALID_STATUS_TRANSITION"
	case KindInvalidHierarchy:
		return "INVALID_HIERARCHY"
	case KindCircularHierarchy:
		return "CIRCULAR_HIERARCHY"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps an error to the HTTP status an API handler should reply
// with. Hierarchy and transition violations are client errors on a valid
// resource, hence 422.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInvalidStatusTransition, KindInvalidHierarchy, KindCircularHierarchy:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
