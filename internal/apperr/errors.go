package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an error for callers.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps the code to a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type. Message is internal (logs); callers only
// see the code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = New(CodeNotFound, "not found")
	ErrUnauthenticated = New(CodeUnauthenticated, "unauthenticated")
	ErrInvalidArgument = New(CodeInvalidArgument, "invalid argument")
)

// NotFound builds a NotFound error with an internal message.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// InvalidArgument builds an InvalidArgument error with an internal message.
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// CodeOf extracts the code from err; unknown errors are Internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// PublicMessage is the only text a caller should see for a code.
func PublicMessage(code Code) string {
	switch code {
	case CodeNotFound:
		return "not found"
	case CodeUnauthenticated:
		return "unauthorized"
	case CodeInvalidArgument:
		return "invalid request"
	default:
		return "internal server error"
	}
}
