package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure came from.
type Kind int

const (
	// KindHTTP is a response with a non-2xx status.
	KindHTTP Kind = iota
	// KindTransport means no response was received.
	KindTransport
	// KindValidation is a client-side check that failed before any request.
	KindValidation
	// KindResponse is a 2xx response the console could not use.
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindResponse:
		return "response"
	default:
		return "http"
	}
}

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Kind    Kind
	Code    int
	Message string
	Field   string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%d: %s", e.Code, http.StatusText(e.Code))
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError with the given code and message.
// An empty message falls back to "<code>: <status text>".
func NewHTTPError(code int, message string) *HTTPError {
	if message == "" {
		message = fmt.Sprintf("%d: %s", code, http.StatusText(code))
	}
	return &HTTPError{
		Kind:    KindHTTP,
		Code:    code,
		Message: message,
	}
}

// NewTransportError wraps a failure that happened before a response arrived.
func NewTransportError(err error) *HTTPError {
	return &HTTPError{
		Kind:    KindTransport,
		Message: "No se pudo conectar con el servidor",
		Err:     err,
	}
}

// NewValidationError reports a field that failed the input checks.
func NewValidationError(field, message string) *HTTPError {
	return &HTTPError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Field:   field,
		Message: message,
	}
}

// NewResponseError reports a 2xx body that did not carry what the caller needs.
func NewResponseError(code int, message string) *HTTPError {
	return &HTTPError{
		Kind:    KindResponse,
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrNotFound     = func(msg string) *HTTPError { return NewHTTPError(http.StatusNotFound, msg) }
)

// As extracts the *HTTPError from err, if any.
func As(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if he, ok := As(err); ok {
		return he.Code
	}
	return 0
}

// IsKind reports whether err is an *HTTPError of the given kind.
func IsKind(err error, k Kind) bool {
	he, ok := As(err)
	return ok && he.Kind == k
}
