// Package domainerrors provides the coded error values returned by service
// layers. Errors are plain comparable values so callers and tests can match
// them with errors.Is without string inspection.
package domainerrors

import "net/http"

// Code classifies a domain error independently of transport.
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeInvalidInput  Code = "invalid_input"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeNotFound      Code = "not_found"
	CodeConfiguration Code = "configuration_error"
	CodeUpstream      Code = "upstream_error"
	CodeUnavailable   Code = "unavailable"
	CodeInternal      Code = "internal_error"
)

// Error is a value type on purpose: two errors with the same code and message
// compare equal, which keeps errors.Is checks working across package
// boundaries.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// New builds a domain error value.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// ToHTTPStatus maps a domain error code to an HTTP status. Unknown codes fall
// back to 500 so nothing ever fails open with a 2xx.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeConfiguration, CodeUpstream, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf extracts the domain code from err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	if de, ok := err.(Error); ok {
		return de.Code
	}
	return CodeInternal
}
