package checkout

import (
	"errors"
	"fmt"
)

// Error codes forming the checkout error taxonomy. Rail adapters normalize
// processor-specific failures into these before anything reaches the
// orchestrator or the HTTP layer.
const (
	CodeValidation      = "validation"      // bad input, no booking side effects
	CodeQuoteMismatch   = "quoteMismatch"   // expired or mismatched quote, re-quote required
	CodeRailTransient   = "railTransient"   // processor unreachable, retry same booking
	CodeRailDeclined    = "railDeclined"    // payment declined, change details and retry
	CodePartialFailure  = "partialFailure"  // rail succeeded, own record update failed
	CodeSessionNotFound = "sessionNotFound" // unknown or expired checkout session
	CodeSessionConflict = "sessionConflict" // concurrent execution for the same session
	CodeSessionState    = "sessionState"    // operation not allowed in current state
)

// CheckoutError is a coded error carried through the checkout flow.
type CheckoutError struct {
	Code    string
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// NewError builds a coded checkout error.
func NewError(code, message string) error {
	return &CheckoutError{Code: code, Message: message}
}

// WrapError builds a coded checkout error around an underlying cause.
func WrapError(code, message string, err error) error {
	return &CheckoutError{Code: code, Message: message, Err: err}
}

// ErrCode extracts the checkout error code, or "" for uncoded errors.
func ErrCode(err error) string {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err carries the given checkout error code.
func IsCode(err error, code string) bool {
	return ErrCode(err) == code
}
