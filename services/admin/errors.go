package admin

import (
	"errors"
	"fmt"
)

// Approval error codes. Admin actions fail synchronously with a specific
// reason; no partial state mutation is permitted.
const (
	CodeMissingRecord      = "missingRecord"
	CodeAmbiguousReference = "ambiguousReference"
	CodeExpired            = "expired"
	CodeNotPending         = "notPending"
	CodeAlreadyCancelled   = "alreadyCancelled"
	CodeInconsistent       = "inconsistent"
)

// ApprovalError is a coded error returned by admin payment actions.
type ApprovalError struct {
	Code    string
	Message string
	Err     error
}

func (e *ApprovalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ApprovalError) Unwrap() error {
	return e.Err
}

// NewError builds a coded approval error.
func NewError(code, message string) error {
	return &ApprovalError{Code: code, Message: message}
}

// WrapError builds a coded approval error around a cause.
func WrapError(code, message string, err error) error {
	return &ApprovalError{Code: code, Message: message, Err: err}
}

// ErrCode extracts the approval error code, or "" for uncoded errors.
func ErrCode(err error) string {
	var ae *ApprovalError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
