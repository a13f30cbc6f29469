package veldt

import (
	"errors"
	"net/http"
)

// ErrorType tags a structured error response. The tag appears verbatim in the
// `error.type` field of the wire body, so values are stable contract, not
// display strings.
type ErrorType string

const (
	ErrorTypeUnknown              ErrorType = "UNKNOWN"
	ErrorTypeBadRequest           ErrorType = "BAD_REQUEST"            // RFC 9110, 15.5.1
	ErrorTypeUnauthorized         ErrorType = "UNAUTHORIZED"           // RFC 9110, 15.5.2
	ErrorTypeForbidden            ErrorType = "FORBIDDEN"              // RFC 9110, 15.5.4
	ErrorTypeNotFound             ErrorType = "NOT_FOUND"              // RFC 9110, 15.5.5
	ErrorTypeMethodNotAllowed     ErrorType = "METHOD_NOT_ALLOWED"     // RFC 9110, 15.5.6
	ErrorTypeUnsupportedMediaType ErrorType = "UNSUPPORTED_MEDIA_TYPE" // RFC 9110, 15.5.16
	ErrorTypeTimeout              ErrorType = "TIMEOUT"                // RFC 9110, 15.6.5
	ErrorTypeInternal             ErrorType = "INTERNAL_SERVER_ERROR"  // RFC 9110, 15.6.1
)

// Status returns the HTTP status code the error type maps to.
func (t ErrorType) Status() int {
	switch t {
	case ErrorTypeBadRequest:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

// DefaultMessage returns the fixed message used when the caller does not
// supply one.
func (t ErrorType) DefaultMessage() string {
	switch t {
	case ErrorTypeBadRequest:
		return "Bad Request"
	case ErrorTypeUnauthorized:
		return "Unauthorized"
	case ErrorTypeForbidden:
		return "Forbidden"
	case ErrorTypeNotFound:
		return "Not Found"
	case ErrorTypeMethodNotAllowed:
		return "Method Not Allowed"
	case ErrorTypeUnsupportedMediaType:
		return "Unsupported Media Type"
	case ErrorTypeTimeout:
		return "Gateway Timeout"
	}

	return "Internal Server Error"
}

// Error describes an http error. Handlers can return it to have the
// dispatcher render the corresponding structured error response.
type Error struct {
	typ     ErrorType
	message string
	details any
	err     error
}

// NewError inits a new error given the error type and an underlying cause.
func NewError(t ErrorType, underlying error) *Error {
	return &Error{typ: t, err: underlying}
}

// NewErrorMessage inits a new error with a client-visible message instead of
// the type's default one.
func NewErrorMessage(t ErrorType, message string) *Error {
	return &Error{typ: t, message: message}
}

// WithDetails attaches free-form detail data that is serialized into the
// `error.details` field of the response body.
func (e *Error) WithDetails(details any) *Error {
	e.details = details
	return e
}

// Type returns the error's type tag.
func (e *Error) Type() ErrorType { return e.typ }

// Message returns the client-visible message, falling back to the type's
// default. The underlying cause is never exposed to the client.
func (e *Error) Message() string {
	if e.message != "" {
		return e.message
	}

	return e.typ.DefaultMessage()
}

// Details returns the attached detail data, or nil.
func (e *Error) Details() any { return e.details }

func (e *Error) Error() string {
	if e.err != nil {
		return string(e.typ) + ": " + e.err.Error()
	}

	return string(e.typ) + ": " + e.Message()
}

func (e *Error) Unwrap() error { return e.err }

// TypeOf returns the error's type tag if it is or wraps an [*Error] and
// [ErrorTypeUnknown] otherwise.
func TypeOf(err error) ErrorType {
	if verr, ok := asError(err); ok {
		return verr.Type()
	}

	return ErrorTypeUnknown
}

// asError uses errors.As to unwrap any error and look for a veldt *Error.
func asError(err error) (*Error, bool) {
	var verr *Error
	ok := errors.As(err, &verr)

	return verr, ok
}

// Sentinel errors for resource-contract and definition-time violations.
// Violations that can only come from a programming bug at a call site the
// framework controls (double build, late registration) panic instead, see
// the respective methods.
var (
	// ErrBodyConsumed is returned when a body accessor is called after the
	// underlying stream was committed to an incompatible representation.
	ErrBodyConsumed = errors.New("veldt: request body already consumed")

	// ErrMatcherCompiled is returned by matchers when AddRoute is called
	// after Compile.
	ErrMatcherCompiled = errors.New("veldt: route matcher already compiled")

	// ErrRouteNotNamed is returned by Reverse for unknown route names.
	ErrRouteNotNamed = errors.New("veldt: no route with that name")
)
