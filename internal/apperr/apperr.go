// Package apperr defines the error taxonomy shared by the service core.
// Every failure the core can report carries an explicit Kind so the HTTP
// boundary can map it to a status code with a fixed lookup table instead of
// type switches scattered through handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal is the zero value so an unclassified error maps to 500.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnsupportedPaymentMethod
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnsupportedPaymentMethod:
		return "unsupported_payment_method"
	case KindGateway:
		return "gateway"
	default:
		return "internal"
	}
}

// Error is a tagged error. Fields optionally carries per-field validation
// messages keyed by field name; on duplicate field errors the last message
// wins.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap keeps the cause reachable through errors.Is/As.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithField attaches a field-level message and returns the same error.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

// KindOf extracts the Kind from err, walking the wrap chain. Errors that
// never went through this package count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns the field messages of err, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns the user-facing message of err, or "" for errors that
// did not originate in this package.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
