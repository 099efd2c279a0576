// Package errors defines the error taxonomy shared by the dashboard core
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the UI reacts to it.
type Kind string

// Error kinds.
const (
	KindAuth       Kind = "auth"       // 401 / token rejected: clear token, back to login
	KindValidation Kind = "validation" // client-side guardrail: inline form message
	KindTransport  Kind = "transport"  // non-2xx or network failure: panel banner + retry
	KindDecode     Kind = "decode"     // response matched no accepted envelope: treat as empty
	KindStream     Kind = "stream"     // event source failure: degraded event + reconnect
)

// Common errors that can occur in dashboard operations
var (
	// ErrUnauthorized is returned when the server rejects the bearer token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by login when the credentials are wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidAmount is returned when a refund amount fails validation
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMalformedMetadata is returned when JSON metadata cannot be parsed
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrDecode is returned when a response did not match any accepted envelope
	ErrDecode = errors.New("undecodable response")

	// ErrStreamClosed is returned when the event stream is gone
	ErrStreamClosed = errors.New("stream closed")
)

// Error is a detailed error with the operation and classification attached.
type Error struct {
	Op     string // Operation that failed, e.g. "getPayments"
	Kind   Kind   // Classification for the UI
	Detail string // Server-provided detail, when parseable
	Err    error  // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("opsdash: %s failed: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("opsdash: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// New creates a classified Error
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewWithDetail creates a classified Error carrying a server detail message
func NewWithDetail(op string, kind Kind, err error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Detail: detail}
}

// KindOf returns the classification of err, or the empty Kind for foreign
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Detail extracts the server-provided detail from err, if any.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// IsAuth checks if an error indicates an authentication failure
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth || errors.Is(err, ErrUnauthorized)
}

// IsTransport checks if an error indicates a transport failure
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// IsDecode checks if an error indicates an undecodable response
func IsDecode(err error) bool {
	return KindOf(err) == KindDecode || errors.Is(err, ErrDecode)
}

// IsValidation checks if an error indicates a client-side validation failure
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
