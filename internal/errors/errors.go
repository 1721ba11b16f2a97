package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents stable error codes for every failure the dispatcher can surface
type ErrorCode string

const (
	// BadRequest indicates a POST to a path with no registered handler
	BadRequest ErrorCode = "BAD_REQUEST"
	// Forbidden indicates a directory or out-of-root static path
	Forbidden ErrorCode = "FORBIDDEN"
	// NotFound indicates a static file that could not be opened
	NotFound ErrorCode = "NOT_FOUND"
	// PayloadTooLarge indicates a request body above the configured limit
	PayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// NotImplemented indicates a method other than GET or POST
	NotImplemented ErrorCode = "NOT_IMPLEMENTED"
	// MissingParameter indicates a handler asked for a parameter that was not sent
	MissingParameter ErrorCode = "MISSING_PARAMETER"
	// HandlerFailed indicates a handler returned an error or panicked
	HandlerFailed ErrorCode = "HANDLER_FAILED"
	// StreamFailed indicates an I/O failure while streaming a static file
	StreamFailed ErrorCode = "STREAM_FAILED"
	// UnsupportedMethod indicates a route registration for a method other than GET/POST
	UnsupportedMethod ErrorCode = "UNSUPPORTED_METHOD"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is the error type carried across the dispatcher boundary.
// Message is the short reason phrase, Detail is the longer explanation
// rendered into the error page.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	cause   error
}

// New creates a new Error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail sets the explanation shown on the error page
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// Status returns the HTTP status for the error's code
func (e *Error) Status() int {
	return StatusFor(e.Code)
}

// IsClientError reports whether the code maps to a 4xx status
func (e *Error) IsClientError() bool {
	s := e.Status()
	return s >= 400 && s < 500
}

// StatusFor maps error codes to HTTP status codes
func StatusFor(code ErrorCode) int {
	switch code {
	case BadRequest:
		return http.StatusBadRequest // 400
	case Forbidden:
		return http.StatusForbidden // 403
	case NotFound:
		return http.StatusNotFound // 404
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge // 413
	case NotImplemented:
		return http.StatusNotImplemented // 501
	default:
		return http.StatusInternalServerError // 500
	}
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or InternalError
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return InternalError
}
