package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failed task operation.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
)

// Wire error codes carried in the error envelope.
const (
	CodeValidation   = "validation_failed"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeNetwork      = "network_error"
	CodeInternal     = "internal"
)

// Error is the typed error returned by every Service implementation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string][]string
	// Status is the HTTP status that produced the error, 0 if none.
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError returns a validation error with optional field details.
func NewValidationError(message string, details map[string][]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Details: details}
}

// NewAuthError returns an authentication error.
func NewAuthError(message string, err error) *Error {
	return &Error{Kind: KindAuth, Code: CodeUnauthorized, Message: message, Err: err}
}

// NewNotFoundError returns a not-found error.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Code: CodeNetwork, Message: "network error", Err: err}
}

// NewServerError returns an unexpected server-side failure.
func NewServerError(message string, err error) *Error {
	return &Error{Kind: KindServer, Code: CodeInternal, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error are
// classified as server errors; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindServer
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsAuth reports whether err is an authentication error.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsNetwork reports whether err is a network error.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }
