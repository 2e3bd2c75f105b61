// Package serrors implements the semantic error taxonomy shared by the
// analysis client, the stores and the HTTP layer. Every error carries a kind
// (a comparable sentinel) and a code; backend-supplied codes travel through
// unchanged so callers can show them to users verbatim.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind. The name doubles as the default
// error code for errors of that kind.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrInvalidInput is a local validation failure; it never reaches the network.
	ErrInvalidInput = NewKind("INVALID_INPUT")
	// ErrHTTP is a non-2xx response without a structured error body.
	ErrHTTP = NewKind("HTTP_ERROR")
	// ErrBackend is a non-2xx response with a structured {code, message} body.
	// The backend code is kept on the Error and returned by Code.
	ErrBackend = NewKind("BACKEND_ERROR")
	// ErrNetwork means the request never produced a response.
	ErrNetwork = NewKind("NETWORK_ERROR")
	// ErrInvalidResponse means a 2xx body could not be decoded.
	ErrInvalidResponse = NewKind("INVALID_RESPONSE")
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates the caller sent an unusable request.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrStorage indicates the key/value storage failed.
	ErrStorage = NewKind("STORAGE_ERROR")
	// ErrInternal indicates an internal error.
	ErrInternal = NewKind("INTERNAL")
)

// Error is a semantic error carrying a kind, an optional code override, an
// optional HTTP status observed upstream, a message and a wrapped cause.
//
// Error string formatting:
//   - msg and err set: "<msg>: <err>"
//   - only msg: "<msg>"
//   - only err: "<err>"
//   - neither: the code.
type Error struct {
	kind   Kind
	code   string
	status int
	err    error
	msg    string
}

// With constructs a semantic error with the given kind and message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error with the given kind wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Backend creates an ErrBackend error whose code is the backend-supplied one.
func Backend(code, message string, status int) *Error {
	return &Error{kind: ErrBackend, code: code, msg: message, status: status}
}

// WithStatus records the upstream HTTP status on the error and returns it.
func (e *Error) WithStatus(status int) *Error {
	e.status = status

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		return e.Code()
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped error.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As enables type assertions against either the kind or the wrapped error.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the kind sentinel, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Code returns the backend code when one was supplied, otherwise the kind name.
func (e *Error) Code() string {
	if e.code != "" {
		return e.code
	}
	if e.kind != nil {
		return e.kind.Error()
	}

	return ErrInternal.Error()
}

// Status returns the upstream HTTP status, or 0 when none was observed.
func (e *Error) Status() int { return e.status }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// CodeOf extracts the user-facing code of any error. Plain errors map to
// ErrInternal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Code()
	}

	var k Kind
	if errors.As(err, &k) {
		return k.Error()
	}

	return ErrInternal.Error()
}

// titles maps known codes, including the ones the analysis backend emits, to
// short notification titles.
var titles = map[string]string{ //nolint: gochecknoglobals
	"INVALID_INPUT":           "Invalid Input",
	"HTTP_ERROR":              "Server Error",
	"NETWORK_ERROR":           "Connection Error",
	"INVALID_RESPONSE":        "Unexpected Response",
	"NOT_FOUND":               "Not Found",
	"NMAP_NOT_FOUND":          "Nmap Not Installed",
	"NMAP_TIMEOUT":            "Scan Timeout",
	"NMAP_PERMISSION_DENIED":  "Insufficient Permissions",
	"NMAP_EXECUTION_ERROR":    "Scan Error",
	"NVD_RATE_LIMIT":          "Query Limit Exceeded",
	"NVD_CONNECTION_ERROR":    "Connection Error",
	"NVD_TIMEOUT":             "Vulnerability Lookup Timeout",
	"ASN_SERVICE_UNAVAILABLE": "ASN Service Unavailable",
	"GEOLOCATION_DB_ERROR":    "Geolocation Error",
}

// DefaultTitle is used for codes without a dedicated title.
const DefaultTitle = "System Error"

// Title returns the notification title for a code.
func Title(code string) string {
	if t, ok := titles[code]; ok {
		return t
	}

	return DefaultTitle
}
