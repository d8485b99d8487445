package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it instead of
// parsing message strings.
type Kind string

const (
	// KindInvalidInput covers malformed names, symbols, quantities,
	// addresses and secret key material. Raised before any network call.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindInsufficientFunds means a preflight balance check failed before
	// a transaction was attempted.
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"

	// KindLedgerSubmission means the network rejected a submitted
	// transaction. The underlying rejection reason is preserved.
	KindLedgerSubmission Kind = "LEDGER_SUBMISSION"

	// KindConfirmationTimeout means a transaction was submitted but the
	// ledger did not report confirmation within the confirmation window.
	KindConfirmationTimeout Kind = "CONFIRMATION_TIMEOUT"

	// KindRegistrySubmission marks registry proposal failures. These are
	// logged and never propagated to HTTP callers.
	KindRegistrySubmission Kind = "REGISTRY_SUBMISSION"
)

// Error is the structured error carried across component boundaries.
type Error struct {
	Kind    Kind
	Field   string // offending request field, when applicable
	Message string
	Err     error // wrapped cause, when applicable
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error without a cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewFieldError creates an invalid-input Error naming the offending field.
func NewFieldError(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

// WrapError creates an Error wrapping an underlying cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or empty string if err does not
// carry one.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
