// Package objerr defines the error kinds raised by the object-store
// abstraction layer. The shape mirrors azcopy's AzError: a small value
// type carrying a stable kind and message. Sentinel values (NotFound,
// ...) work with errors.Is, and package-level constructors (NotFoundf,
// ...) build errors with a formatted message.
package objerr

import "fmt"

// Kind identifies one of the error categories the object store contract
// raises.
type Kind uint32

const (
	kindNone Kind = iota
	kindInvalidObject
	kindNotFound
	kindQuotaExceeded
	kindNoSession
	kindIOError
)

// Error is the error type the object-store packages use for the five
// error kinds. It always carries a Kind so callers can switch on it with
// errors.As, and it wraps an optional underlying cause.
type Error struct {
	kind    Kind
	msg     string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped error, or nil. Named to match the
// github.com/pkg/errors convention azcopy uses throughout.
func (e *Error) Cause() error { return e.cause }

// Kind reports which of the five error categories this is.
func (e *Error) Kind() Kind { return e.kind }

// Is lets errors.Is(err, objerr.NotFound) work by comparing kinds,
// mirroring AzError.Equals comparing by code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}

func newKind(k Kind, msg string) *Error {
	return &Error{kind: k, msg: msg}
}

// Sentinel, zero-cause instances usable directly with errors.Is, e.g.
// errors.Is(err, objerr.NotFound).
var (
	InvalidObject  = newKind(kindInvalidObject, "invalid object")
	NotFound       = newKind(kindNotFound, "object not found")
	QuotaExceeded  = newKind(kindQuotaExceeded, "quota exceeded")
	NoSession      = newKind(kindNoSession, "no session available")
	IOError        = newKind(kindIOError, "storage I/O error")
)

// InvalidObjectf builds an InvalidObject error with a formatted message,
// e.g. an unsafe extraDir/altName, an empty weight pool, or a missing
// identity key.
func InvalidObjectf(format string, args ...interface{}) *Error {
	return newKind(kindInvalidObject, fmt.Sprintf(format, args...))
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...interface{}) *Error {
	return newKind(kindNotFound, fmt.Sprintf(format, args...))
}

// QuotaExceededf builds a QuotaExceeded error with a formatted message.
func QuotaExceededf(format string, args ...interface{}) *Error {
	return newKind(kindQuotaExceeded, fmt.Sprintf(format, args...))
}

// NoSessionf builds a NoSession error with a formatted message.
func NoSessionf(format string, args ...interface{}) *Error {
	return newKind(kindNoSession, fmt.Sprintf(format, args...))
}

// IOErrorf wraps an underlying I/O failure as an IOError, preserving the
// cause for errors.Unwrap/errors.As.
func IOErrorf(cause error, format string, args ...interface{}) *Error {
	e := newKind(kindIOError, fmt.Sprintf(format, args...))
	e.cause = cause
	return e
}
