// Package apperr defines the typed failures the engine returns to callers.
// Every rejected operation carries a kind the API layer can map to an HTTP
// status; nothing is classified as fatal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindValidation — malformed quantities, prices or percentages. The
	// caller can retry with corrected input.
	KindValidation Kind = iota + 1
	// KindNotFound — unknown article, order, movement or partner id.
	KindNotFound
	// KindInsufficientStock — an exit (or entry reversal) exceeds the
	// quantity on hand.
	KindInsufficientStock
	// KindOverpayment — a payment or order update would make the amount
	// paid exceed the order total.
	KindOverpayment
	// KindReconciliationRequired — a reversal produced a weighted average
	// that cannot be restored; the article is flagged for manual review.
	KindReconciliationRequired
	// KindConflict — the operation is valid but the entity's current state
	// forbids it (already reversed, already cancelled, archived...).
	KindConflict
	// KindInternal — unexpected infrastructure failure.
	KindInternal
)

// Error is the engine's error type. Message is safe to return to callers;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindOverpayment, KindReconciliationRequired, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message of an error chain. Internal
// failures are collapsed to a generic message so infrastructure details
// never leak through the API.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
