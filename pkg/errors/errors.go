// Package errors defines the coded errors loggraph reports to its users.
//
// The graph, printcell and io packages return sentinel errors wrapped with
// context. The session layer, the HTTP server and the CLI classify those into
// an [Error] whose [Code] is stable across releases: HTTP clients switch on it
// and the server derives the response status from it.
//
//	err := errors.New(errors.ErrCodeInvalidRecord, "empty hash at line %d", n)
//	err = errors.Wrap(errors.ErrCodeOrderViolation, graph.ErrParentBeforeChild, "append rejected")
//	if errors.Is(err, errors.ErrCodeOrderViolation) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidRecord  Code = "INVALID_RECORD"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeOrderViolation Code = "ORDER_VIOLATION"
	ErrCodeRowOutOfRange  Code = "ROW_OUT_OF_RANGE"

	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeNodeNotFound       Code = "NODE_NOT_FOUND"
	ErrCodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	ErrCodeRepositoryNotFound Code = "REPOSITORY_NOT_FOUND"

	ErrCodeCanceled    Code = "CANCELED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Status returns the HTTP status for the code. Unknown codes, including the
// empty code of unclassified errors, map to 500.
func (c Code) Status() int {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidRecord, ErrCodeInvalidPath, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeOrderViolation:
		return http.StatusConflict
	case ErrCodeNotFound, ErrCodeNodeNotFound, ErrCodeSessionNotFound,
		ErrCodeRepositoryNotFound, ErrCodeRowOutOfRange:
		return http.StatusNotFound
	case ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Message is written for the user; Cause keeps
// the underlying error reachable through errors.Is and errors.As.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap classifies cause under code.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost Error in err's chain carries code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost Error in err's chain, or the
// empty code when err was never classified.
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost Error without its code,
// or err.Error() for unclassified errors.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.Message
	}
	return err.Error()
}
