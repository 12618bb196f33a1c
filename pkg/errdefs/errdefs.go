package errdefs

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error classifications crossing every
// service contract. Adapters must translate provider errors into
// exactly one kind; a provider error leaking out is a contract
// violation.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindUnavailable    Kind = "unavailable"
	KindTimeout        Kind = "timeout"
	KindConflict       Kind = "conflict"
)

// Error is the single error type surfaced by all contracts
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two taxonomy errors by kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// WithCause attaches the underlying error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds a context entry (resource, service, attempt,
// request_id). Errors are single-writer: context is only mutated
// before the error is first returned.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string, 2)
	}
	e.Context[key] = value
	return e
}

// Common context keys
const (
	CtxResource  = "resource"
	CtxService   = "service"
	CtxAttempt   = "attempt"
	CtxRequestID = "request_id"
)

// NewValidation reports an input that failed a pre-condition
func NewValidation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewValidationPath reports a validation failure at a specific field path
func NewValidationPath(path, format string, args ...interface{}) *Error {
	e := NewValidation(format, args...)
	return e.WithContext("path", path)
}

// NewNotFound reports a missing named resource
func NewNotFound(resource, id string) *Error {
	e := &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
	return e.WithContext(CtxResource, resource).WithContext("id", id)
}

// NewAuthentication reports an invalid, expired, or insufficient
// credential. The message must never echo secret material.
func NewAuthentication(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

// NewUnavailable reports a temporarily unreachable upstream
func NewUnavailable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

// NewTimeout reports a deadline overrun
func NewTimeout(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// NewConflict reports a failed precondition such as a duplicate
// resource or a stale etag
func NewConflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the taxonomy kind of err, or "" for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAuthentication reports whether err is an authentication error
func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

// IsUnavailable reports whether err is a service-unavailable error
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// IsTimeout reports whether err is a timeout error
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsRetryable reports whether err may succeed on another attempt.
// Only unavailable and timeout errors qualify; foreign errors are
// treated as non-retryable so unknown failures surface immediately.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindUnavailable, KindTimeout:
		return true
	}
	return false
}
