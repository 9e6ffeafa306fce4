// Package apperr centralizes the core's error taxonomy. Every error that
// crosses a component boundary is one of these kinds, checked with
// errors.Is/errors.As rather than string comparison.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by which failure condition produced it.
type Kind int

const (
	_ Kind = iota
	KindValidation
	KindMarketNotFound
	KindOrderNotFound
	KindAccountNotFound
	KindInsufficientBalance
	KindInsufficientLiquidity
	KindFokUnfulfillable
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindMarketNotFound:
		return "MarketNotFound"
	case KindOrderNotFound:
		return "OrderNotFound"
	case KindAccountNotFound:
		return "AccountNotFound"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindInsufficientLiquidity:
		return "InsufficientLiquidity"
	case KindFokUnfulfillable:
		return "FokUnfulfillable"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every core operation that
// can fail. Wrap an underlying cause with Cause when one exists so
// errors.Unwrap keeps working.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, apperr.KindX) style checks via a sentinel
// kind-only Error value; callers more commonly use Is(err, kind) below.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validationf builds a KindValidation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, returning KindInternal when err is not
// an *Error (an invariant the caller should treat as a bug, not a signal).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Common, parameter-free sentinels for the frequent cases.
var (
	ErrOrderNotFound        = New(KindOrderNotFound, "order not found")
	ErrMarketNotFound       = New(KindMarketNotFound, "market not found")
	ErrAccountNotFound      = New(KindAccountNotFound, "account not found")
	ErrInsufficientBalance  = New(KindInsufficientBalance, "insufficient balance")
	ErrInsufficientLiquidity = New(KindInsufficientLiquidity, "insufficient liquidity")
	ErrFokUnfulfillable     = New(KindFokUnfulfillable, "fill-or-kill order cannot be fully filled")
)
